package cmd

import (
	"github.com/spf13/cobra"

	"costdelta/cmd/estimate"
	initCmd "costdelta/cmd/init"
	"costdelta/cmd/list"
	"costdelta/cmd/version"
	"costdelta/internal/config"
	"costdelta/internal/logging"
)

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "costdelta",
		Short: "costdelta - monthly cost impact of infrastructure changes",
		Long: `costdelta estimates how the monthly bill changes when a set of
infrastructure changes is deployed. It prices each added, updated and removed
resource of a change report through the AWS Price List API and reports the
per-resource and total monthly delta.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config initialization for commands that don't need it
			switch cmd.Name() {
			case "version", "help", "completion":
				return nil
			}
			return initConfig(cmd, configFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("profile", "p", "default", "AWS profile to use (supports SSO profiles)")
	rootCmd.PersistentFlags().Int("max-workers", 4, "Maximum number of concurrent price lookups")
	rootCmd.PersistentFlags().String("log-format", "text", "Log output format (text or json)")
	rootCmd.PersistentFlags().String("log-level", "INFO", "Set logging level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(estimate.NewEstimateCmd())
	rootCmd.AddCommand(list.NewListCmd())
	rootCmd.AddCommand(initCmd.NewInitCmd())
	rootCmd.AddCommand(version.NewVersionCmd())

	return rootCmd
}

// initConfig loads configuration and configures logging for cmd
func initConfig(cmd *cobra.Command, configFile string) error {
	if err := config.InitConfig(false); err != nil {
		return err
	}
	if configFile != "" {
		if err := config.SetConfigFile(configFile); err != nil {
			return err
		}
	}

	if err := config.BindFlags(cmd, "aws.profile", "app.max_workers", "app.log_format", "app.log_level"); err != nil {
		return err
	}
	config.Load()

	level, err := logging.ParseLevel(config.Config.LogLevel)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(config.Config.LogFormat)
	if err != nil {
		return err
	}
	logging.Configure(logging.LogConfig{
		Level:  level,
		Format: format,
	})

	config.LogConfigurationSources(level == logging.DEBUG, cmd)
	return nil
}

// Execute adds all child commands to the root command and runs it
func Execute() error {
	return NewRootCmd().Execute()
}
