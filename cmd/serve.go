package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/psds-microservice/ticket-bot/internal/application"
	"github.com/psds-microservice/ticket-bot/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot (Telegram long polling) and the ops HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := application.NewBot(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	log.Info("ticket-bot started", "env", cfg.AppEnv, "agents", len(cfg.Agents), "dialogue_ttl", cfg.DialogueTTL.String())
	if err := app.Run(ctx); err != nil {
		return err
	}
	log.Info("ticket-bot stopped")
	return nil
}
