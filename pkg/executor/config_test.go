package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	config := testConfig()
	assert.NoError(t, config.Validate())

	config = testConfig()
	config.AgentEndpoint = ""
	assert.Error(t, config.Validate())

	config = testConfig()
	config.AgentEndpoint = "ftp://agent:5051"
	assert.Error(t, config.Validate())

	config = testConfig()
	config.FrameworkID = ""
	assert.Error(t, config.Validate())

	config = testConfig()
	config.ExecutorID = ""
	assert.Error(t, config.Validate())

	config = testConfig()
	config.ShutdownGracePeriod = -time.Second
	assert.Error(t, config.Validate())

	config = testConfig()
	config.ShutdownGracePeriod = 0
	assert.NoError(t, config.Validate())
}
