// Package telegram — транспорт бота поверх Telegram Bot API (long polling).
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/psds-microservice/ticket-bot/internal/bot"
)

// MaxMessageLength — лимит Telegram на длину текста сообщения.
const MaxMessageLength = 4096

// botAPI — минимальный срез tgbotapi.BotAPI, нужный клиенту (подменяется в тестах).
type botAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Client читает апдейты и отправляет сообщения. Реализует bot.Sender.
type Client struct {
	api         botAPI
	pollTimeout int
	log         *slog.Logger
}

// New авторизуется по токену (getMe) и возвращает клиента.
func New(token string, pollTimeout int, log *slog.Logger) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram: token is empty")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize: %w", err)
	}
	c := newClient(api, pollTimeout, log)
	c.log.Info("authorized", "bot", api.Self.UserName)
	return c, nil
}

func newClient(api botAPI, pollTimeout int, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	if pollTimeout <= 0 {
		pollTimeout = 60
	}
	return &Client{api: api, pollTimeout: pollTimeout, log: log.With("component", "telegram")}
}

// Run получает апдейты и передаёт их handle строго по одному, пока не отменён ctx.
func (c *Client) Run(ctx context.Context, handle func(context.Context, bot.Event)) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout
	u.AllowedUpdates = []string{"message"}
	updates := c.api.GetUpdatesChan(u)
	defer c.api.StopReceivingUpdates()

	c.log.Info("polling started", "timeout_sec", c.pollTimeout)
	for {
		select {
		case <-ctx.Done():
			c.log.Info("polling stopped")
			return nil
		case upd, ok := <-updates:
			if !ok {
				return errors.New("telegram: updates channel closed")
			}
			ev, ok := toEvent(upd)
			if !ok {
				continue
			}
			handle(ctx, ev)
		}
	}
}

// toEvent берёт только текстовые сообщения с известным отправителем.
func toEvent(upd tgbotapi.Update) (bot.Event, bool) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Text == "" {
		return bot.Event{}, false
	}
	// разбираем сами: сущность bot_command обрезает "/new-ticket" до "/new"
	cmd, args := bot.ParseText(msg.Text)
	return bot.Event{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		Username:  msg.From.UserName,
		FullName:  strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
		Text:      msg.Text,
		Command:   cmd,
		Args:      args,
	}, true
}

// Send отправляет текст, разбивая его на части по MaxMessageLength.
// Цитата (ReplyTo) ставится только на первую часть.
func (c *Client) Send(ctx context.Context, out bot.Outgoing) error {
	for i, part := range splitText(out.Text, MaxMessageLength) {
		if err := ctx.Err(); err != nil {
			return err
		}
		m := tgbotapi.NewMessage(out.ChatID, part)
		if i == 0 && out.ReplyTo != 0 {
			m.ReplyToMessageID = out.ReplyTo
			m.AllowSendingWithoutReply = true
		}
		if _, err := c.api.Send(m); err != nil {
			return fmt.Errorf("telegram: send to %d: %w", out.ChatID, err)
		}
	}
	return nil
}

// splitText режет по строкам, длинные строки — по рунам. Переводы строк
// на краях частей отбрасываются.
func splitText(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		parts []string
		cur   strings.Builder
		n     int
	)
	flush := func() {
		if s := strings.Trim(cur.String(), "\n"); s != "" {
			parts = append(parts, s)
		}
		cur.Reset()
		n = 0
	}
	for _, line := range strings.SplitAfter(text, "\n") {
		ln := utf8.RuneCountInString(line)
		if n+ln > limit {
			flush()
		}
		for ln > limit {
			r := []rune(line)
			parts = append(parts, string(r[:limit]))
			line = string(r[limit:])
			ln -= limit
		}
		cur.WriteString(line)
		n += ln
	}
	flush()
	return parts
}
