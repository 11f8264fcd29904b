// Package cmd provides the entrypoint for the calendly-webhook cli.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/isometry/calendly-webhook/internal/config"
	"github.com/isometry/calendly-webhook/internal/helpers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFilePath string
	logger         *slog.Logger
)

// New returns the root command for the calendly-webhook.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "calendly-webhook",
		Short:         "Receive Calendly webhooks and record bookings on CRM leads and customers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch cmd.Name() {
			case config.ModeService, config.ModeLambda:
				config.Global.Mode = cmd.Name()
			default:
				config.Global.Mode = strings.TrimSpace(config.Global.Mode)
			}
			logger = helpers.NewLogger(os.Stdout, config.Global.Logging.Verbosity, config.Global.Logging.CallerTrace).
				With("mode", config.Global.Mode)
			return config.Validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch config.Global.Mode {
			case config.ModeService:
				return runService(cmd, args)
			case config.ModeLambda:
				return runLambda(cmd, args)
			default:
				return fmt.Errorf("invalid mode: %s", config.Global.Mode)
			}
		},
	}

	// Root command flags
	configFilePath = os.Getenv("CALENDLY_WEBHOOK_CONFIG")
	if configFilePath == "" {
		configFilePath = "config.yaml"
	}
	cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", configFilePath, "[CALENDLY_WEBHOOK_CONFIG] path to the configuration file")

	// Configuration loading & defaults
	if err := errors.Join(
		config.LoadFromFile(configFilePath),
		config.SetDefaults(),
	); err != nil {
		panic(err)
	}

	// Dynamic flags
	setupDynamicFlags(cmd)

	// Subcommands
	cmd.AddCommand(
		cmdService(),
		cmdLambda(),
		cmdMigrate(),
		cmdSign(),
	)

	return cmd
}

func setupDynamicFlags(cmd *cobra.Command) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(replacer)

	bindEnvMap(cmd, envMapString)
	bindEnvMap(cmd, envMapBool)
	bindEnvMap(cmd, envMapCount)
	bindEnvMap(cmd, envMapDuration)
}
