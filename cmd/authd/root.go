package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/precinctdesk/go-auth/internal/config"
	"github.com/precinctdesk/go-auth/internal/logging"
)

var (
	configFile string
	v          = config.NewViper()
	rootLogger = logging.New(logging.Options{})
)

var rootCmd = &cobra.Command{
	Use:   "authd",
	Short: "Account registration, login and bearer token validation service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configErr := readConfigFile()
		rootLogger = logging.New(logging.Options{
			Level:   v.GetString(config.LogLevelKey),
			Format:  v.GetString(config.LogFormatKey),
			NoColor: v.GetBool(config.LogNoColorKey),
		})
		if configErr != nil {
			return configErr
		}
		if used := v.ConfigFileUsed(); used != "" {
			rootLogger.Debug().Msgf("using config file: %s", used)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		rootLogger.Error().Err(err).Msg("execution failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./authd.yaml)")

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = v.BindPFlag(config.LogLevelKey, rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("log-format", "console", "Log format (console, json)")
	_ = v.BindPFlag(config.LogFormatKey, rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.PersistentFlags().Bool("no-color", false, "Disable color output")
	_ = v.BindPFlag(config.LogNoColorKey, rootCmd.PersistentFlags().Lookup("no-color"))

	rootCmd.PersistentFlags().String("dsn", "file:auth.db?cache=shared", "sqlite DSN")
	_ = v.BindPFlag(config.DSNKey, rootCmd.PersistentFlags().Lookup("dsn"))

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
}

func readConfigFile() error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("authd")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFoundError) {
			return nil
		}
		return err
	}
	return nil
}

func componentLogger(name string) logging.ZLogger {
	return logging.NewZLogger(rootLogger).Named(name)
}
