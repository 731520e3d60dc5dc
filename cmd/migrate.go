package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vinnieai/vinnie/internal/config"
	"github.com/vinnieai/vinnie/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.ValidateStorage(); err != nil {
			return fmt.Errorf("validating config: %w", err)
		}

		if err := database.Migrate(cfg.PostgresConnectionString()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}

		cmd.Println("migrations applied")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
