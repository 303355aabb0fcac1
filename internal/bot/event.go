package bot

import (
	"context"
	"strings"
)

// Event — входящее текстовое сообщение, уже разобранное транспортом.
type Event struct {
	ChatID    int64
	MessageID int
	UserID    int64
	Username  string
	FullName  string
	Text      string
	// Command — имя команды без "/" и суффикса "@bot"; пусто для обычного текста.
	Command string
	Args    []string
}

// DisplayName — @username, либо полное имя, если username не задан.
func (e Event) DisplayName() string {
	if e.Username != "" {
		return "@" + e.Username
	}
	if e.FullName != "" {
		return e.FullName
	}
	return "user " + formatInt(e.UserID)
}

// ParseText разбирает сырой текст в Event: "/cmd@bot a b" -> Command "cmd", Args [a b].
// Транспорты без собственного разбора команд могут использовать его напрямую.
func ParseText(text string) (command string, args []string) {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return "", nil
	}
	name := strings.TrimPrefix(fields[0], "/")
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil
	}
	return name, fields[1:]
}

// Outgoing — исходящее сообщение.
type Outgoing struct {
	ChatID int64
	// ReplyTo — id сообщения, на которое отвечаем; 0 — без цитаты.
	ReplyTo int
	Text    string
}

// Sender доставляет сообщения в чат (Telegram в проде, фейк в тестах).
type Sender interface {
	Send(ctx context.Context, msg Outgoing) error
}
