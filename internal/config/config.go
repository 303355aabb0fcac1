package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BotToken    string
	DatabaseURL string

	// Agents — id пользователей Telegram с правами агента поддержки (SUPPORT_AGENTS, через запятую).
	Agents      []int64
	DialogueTTL time.Duration
	PollTimeout int

	AppHost     string
	HTTPPort    string
	HTTPEnabled bool
	AppEnv      string
	LogLevel    string
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		BotToken:    firstEnv("BOT_TOKEN", "TELEGRAM_BOT_TOKEN", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Agents:      parseAgents(getEnv("SUPPORT_AGENTS", "")),
		AppHost:     getEnv("APP_HOST", "127.0.0.1"),
		HTTPPort:    firstEnv("APP_PORT", "HTTP_PORT", "8097"),
		AppEnv:      getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}

	ttl, err := time.ParseDuration(getEnv("DIALOGUE_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("config: DIALOGUE_TTL: %w", err)
	}
	cfg.DialogueTTL = ttl

	cfg.PollTimeout, err = strconv.Atoi(getEnv("TELEGRAM_POLL_TIMEOUT", "60"))
	if err != nil {
		return nil, fmt.Errorf("config: TELEGRAM_POLL_TIMEOUT: %w", err)
	}

	cfg.HTTPEnabled, err = strconv.ParseBool(getEnv("HTTP_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: HTTP_ENABLED: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.BotToken == "" {
		return errors.New("config: BOT_TOKEN is required")
	}
	return c.ValidateDatabase()
}

// ValidateDatabase — проверка для команд, которым нужен только доступ к БД (migrate).
func (c *Config) ValidateDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	return nil
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// SlogLevel переводит LOG_LEVEL в уровень slog; неизвестные значения дают info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// parseAgents разбирает CSV с id; пустые и нечисловые элементы пропускаются.
func parseAgents(raw string) []int64 {
	var out []int64
	seen := make(map[int64]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
