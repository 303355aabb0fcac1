package bot

import (
	"context"
	"log/slog"
)

// Delivery — результат отправки уведомления одному получателю.
type Delivery struct {
	ChatID int64
	Err    error
}

// Notifier рассылает уведомления best-effort: ошибка одному получателю не
// мешает остальным, не повторяется и не возвращается инициатору, только логируется.
type Notifier struct {
	sender Sender
	log    *slog.Logger
}

func NewNotifier(sender Sender, log *slog.Logger) *Notifier {
	if log == nil {
		log = slog.Default()
	}
	return &Notifier{sender: sender, log: log}
}

// Notify отправляет одно уведомление.
func (n *Notifier) Notify(ctx context.Context, chatID int64, text string) Delivery {
	err := n.sender.Send(ctx, Outgoing{ChatID: chatID, Text: text})
	if err != nil {
		n.log.Warn("notification failed", "chat_id", chatID, "error", err)
	}
	return Delivery{ChatID: chatID, Err: err}
}

// Broadcast отправляет text получателям последовательно, в заданном порядке.
func (n *Notifier) Broadcast(ctx context.Context, recipients []int64, text string) []Delivery {
	out := make([]Delivery, 0, len(recipients))
	failed := 0
	for _, id := range recipients {
		d := n.Notify(ctx, id, text)
		if d.Err != nil {
			failed++
		}
		out = append(out, d)
	}
	if failed > 0 {
		n.log.Warn("broadcast partially failed", "recipients", len(recipients), "failed", failed)
	}
	return out
}
