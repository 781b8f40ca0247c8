package main

import (
	"fmt"
	"os"

	"github.com/prayershare/backend/internal/config"
	"github.com/prayershare/backend/pkg/logger"
	"github.com/prayershare/backend/pkg/utils"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "prayershare",
	Short: "PrayerShare API server",
	Long: `PrayerShare serves the group request-sharing API.

  prayershare                 Start the HTTP server (same as "serve")
  prayershare migrate         Create or update database tables
  prayershare user create     Create an account from the terminal`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()
		cfg = config.Load()
		utils.ConfigureJWT(cfg.JWT.Secret, cfg.JWT.ExpirationHours)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
