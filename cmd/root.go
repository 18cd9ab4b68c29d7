// Package cmd implements the CLI surface: list-log-groups and mount,
// bound through cobra/pflag/viper following the teacher's cmd/root.go.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/asimihsan/cwl-mount/internal/cfg"
)

var (
	cfgFile       string
	verbosity     int
	bindErr       error
	configFileErr error
	unmarshalErr  error

	config = cfg.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "cwl-mount",
	Short: "Mount a CloudWatch Logs group (or group filter) as a read-only time-indexed filesystem",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		config.Logging.Severity = cfg.SeverityForVerbosity(verbosity)
		return initLogging()
	},
}

// Execute runs the root command, exiting nonzero on failure, matching the
// teacher's cmd.Execute.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to an optional YAML config file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "v", "v", "Increase log verbosity (repeatable: warn, info, debug, trace)")
	cfg.BindGlobalFlags(rootCmd.PersistentFlags(), &config)
	bindErr = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(listLogGroupsCmd)
	rootCmd.AddCommand(mountCmd)
}

func initConfig() {
	// Subcommand flags and the flat --log-format/--log-file flags are bound
	// too, so that a flag given on the command line wins over the same
	// setting in the config file when viper.Unmarshal runs below.
	if bindErr == nil {
		bindErr = viper.BindPFlags(mountCmd.Flags())
	}
	if bindErr == nil {
		bindErr = viper.BindPFlags(listLogGroupsCmd.Flags())
	}
	if bindErr == nil {
		bindErr = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	}
	if bindErr == nil {
		bindErr = viper.BindPFlag("logging.file-path", rootCmd.PersistentFlags().Lookup("log-file"))
	}
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&config)
		return
	}
	viper.SetConfigFile(cfgFile)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&config)
}
