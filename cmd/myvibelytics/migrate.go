package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justestif/myvibelytics/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.RequireDatabase(); err != nil {
			return err
		}

		ctx := cmd.Context()
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()

		if err := database.Migrate(ctx); err != nil {
			return err
		}

		removed, err := database.Sessions().DeleteExpired(ctx)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", zap.Int64("expired_sessions_removed", removed))
		return nil
	},
}
