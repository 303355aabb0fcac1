package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/psds-microservice/ticket-bot/internal/bot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	updates chan tgbotapi.Update
	sent    []tgbotapi.MessageConfig
	sendErr error
	stopped bool
	config  tgbotapi.UpdateConfig
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.config = config
	return f.updates
}

func (f *fakeAPI) StopReceivingUpdates() { f.stopped = true }

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.sendErr != nil {
		return tgbotapi.Message{}, f.sendErr
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func textUpdate(userID int64, username, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: userID, UserName: username, FirstName: "Alice", LastName: "Doe"},
		Chat:      &tgbotapi.Chat{ID: userID},
		Text:      text,
	}}
}

func TestToEvent(t *testing.T) {
	ev, ok := toEvent(textUpdate(7, "alice", "/view_ticket@support_bot 42"))
	require.True(t, ok)
	assert.Equal(t, int64(7), ev.UserID)
	assert.Equal(t, int64(7), ev.ChatID)
	assert.Equal(t, 10, ev.MessageID)
	assert.Equal(t, "alice", ev.Username)
	assert.Equal(t, "Alice Doe", ev.FullName)
	assert.Equal(t, "view_ticket", ev.Command)
	assert.Equal(t, []string{"42"}, ev.Args)

	ev, ok = toEvent(textUpdate(7, "alice", "/new-ticket"))
	require.True(t, ok)
	assert.Equal(t, "new-ticket", ev.Command)

	_, ok = toEvent(tgbotapi.Update{})
	assert.False(t, ok)
	_, ok = toEvent(textUpdate(7, "alice", ""))
	assert.False(t, ok)
}

func TestRunDeliversEventsInOrder(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update, 3)}
	c := newClient(api, 30, nil)
	api.updates <- textUpdate(1, "a", "first")
	api.updates <- tgbotapi.Update{} // не сообщение
	api.updates <- textUpdate(1, "a", "second")

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	err := c.Run(ctx, func(_ context.Context, ev bot.Event) {
		got = append(got, ev.Text)
		if len(got) == 2 {
			cancel()
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
	assert.True(t, api.stopped)
	assert.Equal(t, 30, api.config.Timeout)
}

func TestRunClosedChannel(t *testing.T) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	close(api.updates)
	err := newClient(api, 0, nil).Run(context.Background(), func(context.Context, bot.Event) {})
	assert.Error(t, err)
}

func TestSendSetsReplyOnFirstPartOnly(t *testing.T) {
	api := &fakeAPI{}
	c := newClient(api, 0, nil)
	long := strings.Repeat("x", MaxMessageLength) + "\nyy"

	require.NoError(t, c.Send(context.Background(), bot.Outgoing{ChatID: 5, ReplyTo: 3, Text: long}))
	require.Len(t, api.sent, 2)
	assert.Equal(t, 3, api.sent[0].ReplyToMessageID)
	assert.Zero(t, api.sent[1].ReplyToMessageID)
	assert.Equal(t, "yy", api.sent[1].Text)
}

func TestSendWrapsError(t *testing.T) {
	api := &fakeAPI{sendErr: errors.New("Forbidden: bot was blocked by the user")}
	err := newClient(api, 0, nil).Send(context.Background(), bot.Outgoing{ChatID: 5, Text: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send to 5")
}

func TestSplitText(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitText("short", 10))

	parts := splitText("aaaa\nbbbb\ncccc", 10)
	assert.Equal(t, []string{"aaaa\nbbbb", "cccc"}, parts)

	parts = splitText(strings.Repeat("я", 25), 10)
	require.Len(t, parts, 3)
	for _, p := range parts {
		assert.LessOrEqual(t, utf8.RuneCountInString(p), 10)
	}
	assert.Equal(t, strings.Repeat("я", 25), strings.Join(parts, ""))
}

func TestSplitTextLongLineDoesNotLeaveBlankLine(t *testing.T) {
	parts := splitText(strings.Repeat("a", 10)+"\nnext", 10)
	assert.Equal(t, []string{"aaaaaaaaaa", "next"}, parts)

	parts = splitText(strings.Repeat("a", 12)+"\nnext\n\nlast", 10)
	assert.Equal(t, []string{"aaaaaaaaaa", "aa\nnext", "last"}, parts)
	for _, p := range parts {
		assert.False(t, strings.HasPrefix(p, "\n"), "%q", p)
	}
}
