package main

import (
	"fmt"
	"os"

	"github.com/denisbrodbeck/machineid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/mexec/pkg/agent"
	"github.com/srand/mexec/pkg/executor"
	"github.com/srand/mexec/pkg/log"
	"github.com/srand/mexec/pkg/runner"
	"github.com/srand/mexec/pkg/utils"
)

var rootCmd = &cobra.Command{
	Use:   "executor",
	Short: "Command executor for the cluster task execution protocol",
	Run: func(cmd *cobra.Command, args []string) {
		verbosity, err := cmd.Flags().GetCount("verbose")
		if err != nil {
			log.Fatal(err)
		}
		switch {
		case verbosity >= 2:
			log.SetLevel(log.TraceLevel)
		case verbosity >= 1:
			log.SetLevel(log.DebugLevel)
		}

		// Load executor configuration from file or environment.
		config, err := LoadConfig()
		if err != nil {
			log.Fatal(err)
		}

		// In local mode the identity is normally not injected by an
		// agent, so fall back to a machine derived executor id.
		if config.Local {
			if config.ExecutorID == "" {
				if id, err := machineid.ProtectedID("mexec"); err == nil {
					config.ExecutorID = id
				}
			}
			if config.FrameworkID == "" {
				config.FrameworkID = "local"
			}
		}

		if err := config.Validate(); err != nil {
			log.Fatal(err)
		}
		config.Log()

		endpoint, err := utils.ParseAgentEndpoint(config.AgentEndpoint)
		if err != nil {
			log.Fatal(err)
		}

		// Task sandboxes live under the work directory when one is
		// configured, otherwise in memory.
		var fs afero.Fs
		workDir := viper.GetString("work_dir")
		if workDir != "" {
			if err := os.MkdirAll(workDir, 0777); err != nil {
				log.Fatal(err)
			}
			fs = afero.NewBasePathFs(afero.NewOsFs(), workDir)
		} else {
			fs = afero.NewMemMapFs()
		}

		exec := runner.NewRunner(fs, workDir)
		driver := executor.NewDriver(*config, exec)

		conn := agent.NewHttpConnection(endpoint, driver.Subscription)
		go func() {
			if err := conn.Run(); err != nil {
				log.Error(err)
			}
		}()

		if config.HttpPort != 0 {
			go serveHttp(driver, config.HttpPort)
		}

		if err := driver.Run(conn); err != nil {
			log.Fatal(err)
		}
	},
}

func main() {
	rootCmd.Flags().StringP("agent-endpoint", "a", "http://localhost:5051", "Agent endpoint URL")
	rootCmd.Flags().StringP("framework-id", "f", "", "Framework identifier")
	rootCmd.Flags().StringP("executor-id", "e", "", "Executor identifier")
	rootCmd.Flags().StringP("grace-period", "g", "0s", "Shutdown grace period")
	rootCmd.Flags().Bool("checkpoint", false, "Agent checkpoints executor state")
	rootCmd.Flags().Bool("local", false, "Local debug mode, disables forced kill")
	rootCmd.Flags().StringP("work-dir", "d", "", "Task sandbox directory")
	rootCmd.Flags().IntP("http-port", "p", 0, "Introspection HTTP port, 0 to disable")
	rootCmd.Flags().CountP("verbose", "v", "Verbosity (repeatable)")

	viper.BindPFlag("agent_endpoint", rootCmd.Flags().Lookup("agent-endpoint"))
	viper.BindPFlag("framework_id", rootCmd.Flags().Lookup("framework-id"))
	viper.BindPFlag("executor_id", rootCmd.Flags().Lookup("executor-id"))
	viper.BindPFlag("shutdown_grace_period", rootCmd.Flags().Lookup("grace-period"))
	viper.BindPFlag("checkpoint", rootCmd.Flags().Lookup("checkpoint"))
	viper.BindPFlag("local", rootCmd.Flags().Lookup("local"))
	viper.BindPFlag("work_dir", rootCmd.Flags().Lookup("work-dir"))
	viper.BindPFlag("http_port", rootCmd.Flags().Lookup("http-port"))
	viper.SetEnvPrefix("mexec")
	viper.AutomaticEnv()

	viper.SetConfigName("executor.yaml")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/mexec/")
	viper.AddConfigPath("$HOME/.config/mexec")
	viper.AddConfigPath(".")
	viper.ReadInConfig()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
