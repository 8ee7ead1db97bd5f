package executor

import (
	"errors"
	"time"

	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/utils"
)

type Config struct {
	// Base URL of the agent, e.g. http://localhost:5051.
	AgentEndpoint string `mapstructure:"agent_endpoint"`

	// Identity of the framework on whose behalf tasks are launched.
	FrameworkID string `mapstructure:"framework_id"`

	// Identity of this executor.
	ExecutorID string `mapstructure:"executor_id"`

	// Time allowed for a clean shutdown before the whole process
	// group is killed. Zero means an immediate kill.
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	// Whether the agent checkpoints executor state. A checkpointing
	// agent may restart without the executor being torn down, so a
	// lost connection is survived by resubscribing.
	Checkpoint bool `mapstructure:"checkpoint"`

	// Local debug mode. Disables the forced kill path.
	Local bool `mapstructure:"local"`

	// Port for the introspection HTTP endpoint. Disabled when zero.
	HttpPort int `mapstructure:"http_port"`
}

// Checks if the executor configuration is valid.
func (c *Config) Validate() error {
	if c.AgentEndpoint == "" {
		return errors.New("An agent endpoint is required")
	}

	if _, err := utils.ParseAgentEndpoint(c.AgentEndpoint); err != nil {
		return errors.New("The agent endpoint is not a valid URI")
	}

	if c.FrameworkID == "" {
		return errors.New("A framework id is required")
	}

	if c.ExecutorID == "" {
		return errors.New("An executor id is required")
	}

	if c.ShutdownGracePeriod < 0 {
		return errors.New("The shutdown grace period must not be negative")
	}

	return nil
}

func (c *Config) Log() {
	log.Info("Executor configuration:")
	log.Infof("  agent_endpoint = %s", c.AgentEndpoint)
	log.Infof("  framework_id = %s", c.FrameworkID)
	log.Infof("  executor_id = %s", c.ExecutorID)
	log.Infof("  shutdown_grace_period = %v", c.ShutdownGracePeriod)
	log.Infof("  checkpoint = %v", c.Checkpoint)
	log.Infof("  local = %v", c.Local)
	log.Infof("  http_port = %v", c.HttpPort)
}
