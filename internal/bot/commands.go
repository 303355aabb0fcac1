package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/ticket-bot/internal/errs"
	"github.com/psds-microservice/ticket-bot/internal/model"
)

type command struct {
	name      string
	agentOnly bool
	handle    func(ctx context.Context, ev Event)
}

// commandTable — имена и синонимы команд (после normalizeCommand).
func (d *Dispatcher) commandTable() map[string]*command {
	all := []struct {
		cmd     *command
		aliases []string
	}{
		{&command{name: "start", handle: d.cmdStart}, nil},
		{&command{name: "help", handle: d.cmdHelp}, nil},
		{&command{name: "newticket", handle: d.cmdNewTicket}, []string{"new_ticket"}},
		{&command{name: "cancel", handle: d.cmdCancel}, nil},
		{&command{name: "list_tickets", agentOnly: true, handle: d.cmdListTickets}, []string{"listtickets"}},
		{&command{name: "view_ticket", agentOnly: true, handle: d.cmdViewTicket}, []string{"viewticket"}},
		{&command{name: "assign", agentOnly: true, handle: d.cmdAssign}, nil},
		{&command{name: "set_status", agentOnly: true, handle: d.cmdSetStatus}, []string{"setstatus"}},
	}
	out := make(map[string]*command)
	for _, c := range all {
		out[c.cmd.name] = c.cmd
		for _, a := range c.aliases {
			out[a] = c.cmd
		}
	}
	return out
}

func (d *Dispatcher) cmdStart(ctx context.Context, ev Event) {
	d.reply(ctx, ev, textWelcome)
}

func (d *Dispatcher) cmdHelp(ctx context.Context, ev Event) {
	d.reply(ctx, ev, helpText(d.IsAgent(ev.UserID)))
}

func (d *Dispatcher) cmdNewTicket(ctx context.Context, ev Event) {
	d.dialogues.Start(ev.UserID)
	d.reply(ctx, ev, textAskSubject)
}

func (d *Dispatcher) cmdCancel(ctx context.Context, ev Event) {
	if d.dialogues.Cancel(ev.UserID) {
		d.reply(ctx, ev, textCancelled)
		return
	}
	d.reply(ctx, ev, textNothingToCancel)
}

func (d *Dispatcher) cmdListTickets(ctx context.Context, ev Event) {
	var filter *model.TicketStatus
	switch len(ev.Args) {
	case 0:
	case 1:
		s, err := model.ParseTicketStatus(ev.Args[0])
		if err != nil {
			d.reply(ctx, ev, textValidStatuses())
			return
		}
		filter = &s
	default:
		d.reply(ctx, ev, usageList)
		return
	}
	tickets, err := d.tickets.ListTickets(ctx, filter)
	if err != nil {
		d.internalError(ctx, ev, "list_tickets", err)
		return
	}
	d.reply(ctx, ev, formatTicketList(tickets))
}

func (d *Dispatcher) cmdViewTicket(ctx context.Context, ev Event) {
	if len(ev.Args) < 1 {
		d.reply(ctx, ev, usageViewTicket)
		return
	}
	id, ok := parseID(ev.Args[0])
	if !ok {
		d.reply(ctx, ev, usageViewTicket)
		return
	}
	ticket, msgs, err := d.tickets.GetTicket(ctx, id)
	if errors.Is(err, errs.ErrTicketNotFound) {
		d.reply(ctx, ev, textTicketNotFound)
		return
	}
	if err != nil {
		d.internalError(ctx, ev, "view_ticket", err)
		return
	}
	d.reply(ctx, ev, formatTicketDetail(ticket, msgs))
}

func (d *Dispatcher) cmdAssign(ctx context.Context, ev Event) {
	if len(ev.Args) < 2 {
		d.reply(ctx, ev, usageAssign)
		return
	}
	id, ok := parseID(ev.Args[0])
	if !ok {
		d.reply(ctx, ev, usageAssign)
		return
	}
	agentID, ok := parseUserID(ev.Args[1])
	if !ok {
		d.reply(ctx, ev, usageAssign)
		return
	}
	err := d.tickets.AssignTicket(ctx, id, agentID)
	if errors.Is(err, errs.ErrTicketNotFound) {
		d.reply(ctx, ev, textTicketNotFound)
		return
	}
	if err != nil {
		d.internalError(ctx, ev, "assign", err)
		return
	}
	d.reply(ctx, ev, fmt.Sprintf("Ticket #%d assigned to %d.", id, agentID))
}

func (d *Dispatcher) cmdSetStatus(ctx context.Context, ev Event) {
	if len(ev.Args) < 2 {
		d.reply(ctx, ev, usageSetStatus)
		return
	}
	id, ok := parseID(ev.Args[0])
	if !ok {
		d.reply(ctx, ev, usageSetStatus)
		return
	}
	status, err := model.ParseTicketStatus(ev.Args[1])
	if err != nil {
		d.reply(ctx, ev, textValidStatuses())
		return
	}
	err = d.tickets.SetStatus(ctx, id, status)
	if errors.Is(err, errs.ErrTicketNotFound) {
		d.reply(ctx, ev, textTicketNotFound)
		return
	}
	if err != nil {
		d.internalError(ctx, ev, "set_status", err)
		return
	}
	d.reply(ctx, ev, fmt.Sprintf("Status of #%d set to %s.", id, status))
}

// continueDialogue продвигает форму; на последнем шаге создаёт тикет и
// уведомляет всех агентов.
func (d *Dispatcher) continueDialogue(ctx context.Context, ev Event) {
	res, ok := d.dialogues.Advance(ev.UserID, ev.Text)
	if !ok {
		return
	}
	if !res.Completed {
		d.reply(ctx, ev, textAskDescription)
		return
	}
	id, err := d.tickets.CreateTicket(ctx, ev.UserID, ev.Username, res.Subject, res.Description)
	if err != nil {
		d.log.Error("create ticket failed", "user_id", ev.UserID, "error", err)
		d.reply(ctx, ev, textCreateFailed)
		return
	}
	d.log.Info("ticket created", "ticket_id", id, "user_id", ev.UserID)
	d.reply(ctx, ev, fmt.Sprintf("✅ Your ticket has been created. Number: #%d", id))
	d.notifier.Broadcast(ctx, d.agents, formatNewTicketNotice(id, ev.DisplayName(), res.Subject, res.Description))
}

// agentReply добавляет ответ агента в тикет и пересылает его автору тикета.
func (d *Dispatcher) agentReply(ctx context.Context, ev Event, ticketID uint64, body string) {
	ticket, _, err := d.tickets.GetTicket(ctx, ticketID)
	if errors.Is(err, errs.ErrTicketNotFound) {
		d.reply(ctx, ev, textTicketNotFound)
		return
	}
	if err != nil {
		d.internalError(ctx, ev, "agent_reply", err)
		return
	}
	senderName := ev.Username
	if senderName == "" {
		senderName = ev.FullName
	}
	if _, err := d.tickets.AddMessage(ctx, ticketID, ev.UserID, senderName, body); err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			d.reply(ctx, ev, textTicketNotFound)
			return
		}
		d.internalError(ctx, ev, "agent_reply", err)
		return
	}
	d.notifier.Notify(ctx, ticket.UserID, formatReplyNotice(ticketID, body))
	d.reply(ctx, ev, fmt.Sprintf("Message added to ticket #%d.", ticketID))
}
