// Package bot классифицирует входящие сообщения чата и вызывает сервис
// тикетов или форму создания тикета.
package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/psds-microservice/ticket-bot/internal/dialogue"
	"github.com/psds-microservice/ticket-bot/internal/service"
)

// DefaultHandleTimeout ограничивает обработку одного события.
const DefaultHandleTimeout = 10 * time.Second

// Deps — зависимости диспетчера.
type Deps struct {
	Tickets   service.TicketServicer
	Dialogues *dialogue.Tracker
	Sender    Sender
	// Agents — статический список id агентов поддержки, порядок рассылки.
	Agents []int64
	Logger *slog.Logger
	// Timeout на одно событие; 0 — DefaultHandleTimeout.
	Timeout time.Duration
}

type Dispatcher struct {
	tickets   service.TicketServicer
	dialogues *dialogue.Tracker
	sender    Sender
	notifier  *Notifier
	agents    []int64
	agentSet  map[int64]struct{}
	commands  map[string]*command
	log       *slog.Logger
	timeout   time.Duration
}

func NewDispatcher(deps Deps) *Dispatcher {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "bot")
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = DefaultHandleTimeout
	}
	d := &Dispatcher{
		tickets:   deps.Tickets,
		dialogues: deps.Dialogues,
		sender:    deps.Sender,
		notifier:  NewNotifier(deps.Sender, log),
		agents:    append([]int64(nil), deps.Agents...),
		agentSet:  make(map[int64]struct{}, len(deps.Agents)),
		log:       log,
		timeout:   timeout,
	}
	for _, id := range deps.Agents {
		d.agentSet[id] = struct{}{}
	}
	d.commands = d.commandTable()
	return d
}

// IsAgent проверяет членство в списке агентов.
func (d *Dispatcher) IsAgent(userID int64) bool {
	_, ok := d.agentSet[userID]
	return ok
}

// Handle обрабатывает одно событие. Ошибки не возвращаются: пользователь
// получает текстовый ответ, детали уходят в лог.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	route := d.Classify(ev)
	log := d.log.With("user_id", ev.UserID, "route", route.Kind.String())
	switch route.Kind {
	case RouteCommand:
		log.Debug("command", "command", route.Command.name, "args", len(ev.Args))
		route.Command.handle(ctx, ev)
	case RouteDialogue:
		d.continueDialogue(ctx, ev)
	case RouteAgentReply:
		d.agentReply(ctx, ev, route.TicketID, route.Body)
	default:
		log.Debug("ignored", "reason", route.Reason)
	}
}

// reply отвечает в тот же чат с цитатой исходного сообщения.
func (d *Dispatcher) reply(ctx context.Context, ev Event, text string) {
	err := d.sender.Send(ctx, Outgoing{ChatID: ev.ChatID, ReplyTo: ev.MessageID, Text: text})
	if err != nil {
		d.log.Warn("reply failed", "chat_id", ev.ChatID, "error", err)
	}
}

// internalError логирует неожиданную ошибку и отвечает общим текстом.
func (d *Dispatcher) internalError(ctx context.Context, ev Event, op string, err error) {
	d.log.Error("handler failed", "op", op, "user_id", ev.UserID, "error", err)
	d.reply(ctx, ev, textInternalError)
}
