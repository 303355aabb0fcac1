package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"BOT_TOKEN", "TELEGRAM_BOT_TOKEN", "DATABASE_URL", "SUPPORT_AGENTS", "DIALOGUE_TTL",
		"TELEGRAM_POLL_TIMEOUT", "HTTP_ENABLED", "APP_HOST", "APP_PORT", "HTTP_PORT", "APP_ENV", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	// .env из рабочей директории не должен влиять на тест
	t.Chdir(t.TempDir())
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8097", cfg.Addr())
	assert.Equal(t, 30*time.Minute, cfg.DialogueTTL)
	assert.Equal(t, 60, cfg.PollTimeout)
	assert.True(t, cfg.HTTPEnabled)
	assert.Empty(t, cfg.Agents)
	assert.EqualError(t, cfg.Validate(), "config: BOT_TOKEN is required")
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "sqlite://bot.db")
	t.Setenv("SUPPORT_AGENTS", " 11, x, 22,,11 ")
	t.Setenv("DIALOGUE_TTL", "5m")
	t.Setenv("HTTP_ENABLED", "false")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []int64{11, 22}, cfg.Agents)
	assert.Equal(t, 5*time.Minute, cfg.DialogueTTL)
	assert.False(t, cfg.HTTPEnabled)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestValidateRequiresDatabase(t *testing.T) {
	cfg := &Config{BotToken: "t"}
	assert.EqualError(t, cfg.Validate(), "config: DATABASE_URL is required")
}

func TestLoadBadDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("DIALOGUE_TTL", "soon")
	_, err := Load()
	assert.ErrorContains(t, err, "DIALOGUE_TTL")
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"info": slog.LevelInfo, "warning": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo,
	} {
		assert.Equal(t, want, (&Config{LogLevel: in}).SlogLevel(), in)
	}
}
