package main

import (
	"fmt"

	"github.com/prayershare/backend/internal/database"
	"github.com/prayershare/backend/internal/services"
	"github.com/spf13/cobra"
)

var (
	flagUsername string
	flagPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := database.Connect(cfg.DB)
		if err != nil {
			return fmt.Errorf("database connection failed: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}

		user, err := services.NewUserService(db).Register(cmd.Context(), services.RegisterInput{
			Username: flagUsername,
			Password: flagPassword,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %s (%s)\n", user.Username, user.ID)
		return nil
	},
}

func init() {
	userCreateCmd.Flags().StringVar(&flagUsername, "username", "", "Username (letters and digits)")
	userCreateCmd.Flags().StringVar(&flagPassword, "password", "", "Password (at least 8 characters)")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
