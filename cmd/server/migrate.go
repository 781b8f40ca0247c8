package main

import (
	"fmt"

	"github.com/prayershare/backend/internal/database"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg.DB)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		logger.Info("database_migrated", map[string]interface{}{
			"driver": cfg.DB.Driver,
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
