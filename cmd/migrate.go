package cmd

import (
	"fmt"

	"github.com/psds-microservice/ticket-bot/internal/config"
	"github.com/psds-microservice/ticket-bot/internal/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print applied and pending migrations",
	RunE:  runMigrateStatus,
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
}

func loadDBConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	setupLogger(cfg)
	return cfg, nil
}

func runMigrateUp(cmd *cobra.Command, args []string) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	if err := database.MigrateUp(cmd.Context(), cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrate up: ok")
	return nil
}

func runMigrateStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadDBConfig()
	if err != nil {
		return err
	}
	if err := database.MigrateStatus(cmd.Context(), cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate status: %w", err)
	}
	return nil
}
