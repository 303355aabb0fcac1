package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/ticket-bot/internal/model"
)

const (
	textWelcome         = "👋 Welcome to support. Send /newticket to open a ticket."
	textAskSubject      = "📝 What is the subject of your problem?"
	textAskDescription  = "Describe your problem in detail:"
	textCancelled       = "Ticket creation cancelled."
	textNothingToCancel = "There is no ticket in progress."
	textNoTickets       = "No tickets found."
	textTicketNotFound  = "Ticket not found."
	textInternalError   = "⚠️ Something went wrong, please try again later."
	textCreateFailed    = "⚠️ Your ticket could not be saved. Please send /newticket to try again."

	usageViewTicket = "Usage: /view_ticket <id>"
	usageAssign     = "Usage: /assign <ticket_id> <agent_user_id>"
	usageSetStatus  = "Usage: /set_status <ticket_id> <status>"
	usageList       = "Usage: /list_tickets [status]"

	// notifyDescriptionLimit — сколько символов описания уходит агентам.
	notifyDescriptionLimit = 200

	timeLayout = "2006-01-02 15:04:05"
	noAssignee = "—"
)

func textValidStatuses() string {
	return "Valid statuses: " + model.StatusList()
}

func helpText(agent bool) string {
	var b strings.Builder
	b.WriteString("Commands:\n")
	b.WriteString("/newticket — open a new ticket\n")
	b.WriteString("/cancel — abandon the ticket you are writing\n")
	if agent {
		b.WriteString("\nAgent commands:\n")
		b.WriteString("/list_tickets [status] — list tickets\n")
		b.WriteString("/view_ticket <id> — ticket details and history\n")
		b.WriteString("/assign <ticket_id> <agent_user_id> — set assignee\n")
		b.WriteString("/set_status <ticket_id> <status> — " + model.StatusList() + "\n")
		b.WriteString("#<id> <text> — reply to the requester")
	}
	return strings.TrimRight(b.String(), "\n")
}

// requester: "@alice (1001)", без username только id.
func requester(t *model.Ticket) string {
	if t.Username == "" {
		return formatInt(t.UserID)
	}
	return fmt.Sprintf("@%s (%d)", t.Username, t.UserID)
}

func assignee(t *model.Ticket) string {
	if t.AssignedTo == nil {
		return noAssignee
	}
	return formatInt(*t.AssignedTo)
}

func formatTime(ts time.Time) string {
	return ts.UTC().Format(timeLayout)
}

// truncate режет по рунам и добавляет многоточие, только если текст длиннее limit.
func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}

func formatTicketList(tickets []model.Ticket) string {
	if len(tickets) == 0 {
		return textNoTickets
	}
	lines := make([]string, 0, len(tickets)+1)
	lines = append(lines, "🎫 Tickets:")
	for i := range tickets {
		t := &tickets[i]
		lines = append(lines, fmt.Sprintf("#%d | %s | status: %s | assigned to: %s",
			t.ID, t.Subject, t.Status, assignee(t)))
	}
	return strings.Join(lines, "\n")
}

func formatTicketDetail(t *model.Ticket, msgs []model.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🎫 Ticket #%d\n", t.ID)
	fmt.Fprintf(&b, "Subject: %s\n", t.Subject)
	fmt.Fprintf(&b, "Initial description: %s\n", t.Description)
	fmt.Fprintf(&b, "Status: %s\n", t.Status)
	fmt.Fprintf(&b, "Assigned to: %s\n", assignee(t))
	fmt.Fprintf(&b, "User: %s\n", requester(t))
	fmt.Fprintf(&b, "Created: %s\n", formatTime(t.CreatedAt))
	fmt.Fprintf(&b, "Last update: %s\n\n", formatTime(t.UpdatedAt))
	b.WriteString("--- History ---\n")
	for _, m := range msgs {
		fmt.Fprintf(&b, "[%s] %s: %s\n", formatTime(m.Timestamp), m.SenderName, m.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatNewTicketNotice(id uint64, from, subject, description string) string {
	return fmt.Sprintf("🆕 New ticket #%d\nFrom: %s\nSubject: %s\nDescription: %s",
		id, from, subject, truncate(description, notifyDescriptionLimit))
}

func formatReplyNotice(id uint64, body string) string {
	return fmt.Sprintf("✉️ Reply on your ticket #%d:\n%s", id, body)
}
