package cmd

import (
	"github.com/spf13/cobra"
)

func cmdMigrate() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the entity store schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			logger.Info("migrating entity store...")
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}
			logger.Info("entity store migrated")
			return nil
		},
	}
}
