package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/ticket-bot/internal/bot"
	"github.com/psds-microservice/ticket-bot/internal/config"
	"github.com/psds-microservice/ticket-bot/internal/database"
	"github.com/psds-microservice/ticket-bot/internal/dialogue"
	"github.com/psds-microservice/ticket-bot/internal/handler"
	"github.com/psds-microservice/ticket-bot/internal/router"
	"github.com/psds-microservice/ticket-bot/internal/service"
	"github.com/psds-microservice/ticket-bot/internal/telegram"
	"gorm.io/gorm"
)

// sweepInterval — как часто вычищаются брошенные диалоги.
const sweepInterval = time.Minute

// Transport — источник событий чата (Telegram в проде).
type Transport interface {
	bot.Sender
	Run(ctx context.Context, handle func(context.Context, bot.Event)) error
}

// Bot — приложение: long polling Telegram + служебный HTTP (health, ready, read-only API).
type Bot struct {
	cfg        *config.Config
	log        *slog.Logger
	db         *gorm.DB
	transport  Transport
	dialogues  *dialogue.Tracker
	dispatcher *bot.Dispatcher
	httpSrv    *http.Server
}

// NewBot применяет миграции, открывает базу и авторизуется в Telegram.
func NewBot(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.MigrateUp(ctx, cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	tg, err := telegram.New(cfg.BotToken, cfg.PollTimeout, log)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	return newBot(cfg, log, db, tg)
}

func newBot(cfg *config.Config, log *slog.Logger, db *gorm.DB, transport Transport) (*Bot, error) {
	if len(cfg.Agents) == 0 {
		log.Warn("SUPPORT_AGENTS is empty: new tickets will not be forwarded to anyone")
	}
	tickets := service.NewTicketService(db)
	dialogues := dialogue.NewTracker(cfg.DialogueTTL)
	b := &Bot{
		cfg:       cfg,
		log:       log,
		db:        db,
		transport: transport,
		dialogues: dialogues,
		dispatcher: bot.NewDispatcher(bot.Deps{
			Tickets:   tickets,
			Dialogues: dialogues,
			Sender:    transport,
			Agents:    cfg.Agents,
			Logger:    log,
		}),
	}
	if cfg.HTTPEnabled {
		if cfg.AppEnv == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		b.httpSrv = &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router.New(handler.NewTicketHandler(tickets, log), sqlDB),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return b, nil
}

// Run блокируется до отмены ctx или падения транспорта, затем гасит HTTP и закрывает базу.
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer func() {
		if err := database.Close(b.db); err != nil {
			b.log.Warn("database close", "error", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.sweepLoop(ctx)
	}()

	if b.httpSrv != nil {
		base := "http://" + b.httpSrv.Addr
		b.log.Info("HTTP server listening", "addr", b.httpSrv.Addr,
			"swagger", base+"/swagger", "health", base+"/health", "api", base+"/api/v1/")
		go func() {
			if err := b.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				b.log.Error("http", "error", err)
			}
		}()
	}

	runErr := b.transport.Run(ctx, b.dispatcher.Handle)
	cancel()
	wg.Wait()

	if b.httpSrv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := b.httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("transport: %w", runErr)
	}
	return nil
}

func (b *Bot) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := b.dialogues.Sweep(); n > 0 {
				b.log.Debug("expired dialogues removed", "count", n)
			}
		}
	}
}
