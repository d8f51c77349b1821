package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/cleaning-api/config"
	"github.com/jwalitptl/cleaning-api/internal/repository/postgres"
	"github.com/jwalitptl/cleaning-api/migrations"
	"github.com/jwalitptl/cleaning-api/pkg/logger"
)

func migrateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "directory holding config.yml")

	run := func(action func(context.Context, *sql.DB) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			var paths []string
			if configPath != "" {
				paths = append(paths, configPath)
			}
			cfg, err := config.LoadConfig(paths...)
			if err != nil {
				return err
			}
			log := logger.NewLogger(&logger.Config{Level: logger.ParseLevel(cfg.Log.Level), Output: cmd.ErrOrStderr(), Pretty: true})

			db, err := postgres.NewDB(cmd.Context(), cfg.Database, cfg.Database.ConnectWait, log)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			return action(cmd.Context(), db.DB)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE:  run(migrations.Up),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE:  run(migrations.Down),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations have been applied",
			Args:  cobra.NoArgs,
			RunE:  run(migrations.Status),
		},
	)
	return cmd
}
