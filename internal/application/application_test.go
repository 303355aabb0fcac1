package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/psds-microservice/ticket-bot/internal/bot"
	"github.com/psds-microservice/ticket-bot/internal/config"
	"github.com/psds-microservice/ticket-bot/internal/database"
	"github.com/psds-microservice/ticket-bot/internal/model"
	"github.com/psds-microservice/ticket-bot/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptTransport отдаёт заранее заданные события и завершает Run.
type scriptTransport struct {
	events []bot.Event
	err    error

	mu   sync.Mutex
	sent []bot.Outgoing
}

func (s *scriptTransport) Run(ctx context.Context, handle func(context.Context, bot.Event)) error {
	for _, ev := range s.events {
		handle(ctx, ev)
	}
	return s.err
}

func (s *scriptTransport) Send(_ context.Context, msg bot.Outgoing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func TestBotRunCreatesTicket(t *testing.T) {
	url := testutil.DatabaseURL(t)
	require.NoError(t, database.MigrateUp(context.Background(), url))
	db, err := database.Open(url)
	require.NoError(t, err)

	user := func(text string) bot.Event {
		cmd, args := bot.ParseText(text)
		return bot.Event{ChatID: 1, UserID: 1, Username: "alice", Text: text, Command: cmd, Args: args}
	}
	tr := &scriptTransport{events: []bot.Event{
		user("/newticket"), user("Login"), user("cannot log in"),
	}}
	cfg := &config.Config{Agents: []int64{99}, DialogueTTL: time.Minute}

	b, err := newBot(cfg, slog.Default(), db, tr)
	require.NoError(t, err)
	require.NoError(t, b.Run(context.Background()))

	require.Len(t, tr.sent, 4)
	assert.Equal(t, int64(99), tr.sent[3].ChatID)
	assert.Contains(t, tr.sent[3].Text, "Login")

	// Run закрывает базу; проверяем результат через новое подключение
	db, err = database.Open(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	var tickets []model.Ticket
	require.NoError(t, db.Find(&tickets).Error)
	require.Len(t, tickets, 1)
	assert.Equal(t, "cannot log in", tickets[0].Description)
}

func TestBotRunTransportError(t *testing.T) {
	db := testutil.NewDB(t)
	tr := &scriptTransport{err: errors.New("updates channel closed")}
	b, err := newBot(&config.Config{DialogueTTL: time.Minute}, slog.Default(), db, tr)
	require.NoError(t, err)
	assert.ErrorContains(t, b.Run(context.Background()), "transport")
}
