package cmd

import (
	"log/slog"
	"os"

	"github.com/psds-microservice/ticket-bot/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "ticket-bot",
	Short:        "Support ticket intake bot for Telegram: new tickets, triage by agents (PSDS)",
	RunE:         runServe,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

// setupLogger ставит глобальный slog: JSON в production, текст в остальных окружениях.
func setupLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.AppEnv == "production" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	log := slog.New(h).With("service", "ticket-bot")
	slog.SetDefault(log)
	return log
}
