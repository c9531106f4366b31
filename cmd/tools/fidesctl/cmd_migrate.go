package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bibliafides/backend/internal/config"
	"github.com/bibliafides/backend/internal/store/postgres"
)

// migrateCmd applies the history schema.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the Postgres history schema",
	Long:  `Applies the embedded migrations to DATABASE_URL. Already applied migrations are skipped.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadHistoryConfig()
		if err != nil {
			return err
		}
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}
