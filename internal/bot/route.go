package bot

import (
	"regexp"
	"strconv"
	"strings"
)

// RouteKind — результат классификации входящего события.
type RouteKind int

const (
	RouteUnhandled RouteKind = iota
	RouteCommand
	RouteDialogue
	RouteAgentReply
)

func (k RouteKind) String() string {
	switch k {
	case RouteCommand:
		return "command"
	case RouteDialogue:
		return "dialogue"
	case RouteAgentReply:
		return "agent_reply"
	default:
		return "unhandled"
	}
}

// Route — помеченный вариант: заполнены только поля своего Kind.
type Route struct {
	Kind RouteKind

	// RouteCommand
	Command *command

	// RouteAgentReply
	TicketID uint64
	Body     string

	// Reason поясняет RouteUnhandled в debug-логах.
	Reason string
}

// agentReplyRe: "#42 текст ответа". Тело может быть многострочным.
var agentReplyRe = regexp.MustCompile(`(?s)^#(\d+) +(.+)$`)

// parseAgentReply разбирает сокращение ответа агента.
func parseAgentReply(text string) (uint64, string, bool) {
	m := agentReplyRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, "", false
	}
	id, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0, "", false
	}
	body := strings.TrimSpace(m[2])
	if body == "" {
		return 0, "", false
	}
	return id, body, true
}

// Classify определяет маршрут события в порядке приоритета:
// команда, продолжение диалога, ответ агента, иначе ничего.
func (d *Dispatcher) Classify(ev Event) Route {
	if ev.Command != "" {
		if cmd, ok := d.commands[normalizeCommand(ev.Command)]; ok {
			if cmd.agentOnly && !d.IsAgent(ev.UserID) {
				return Route{Kind: RouteUnhandled, Reason: "agent command from non-agent"}
			}
			return Route{Kind: RouteCommand, Command: cmd}
		}
	}
	if d.dialogues.Pending(ev.UserID) {
		return Route{Kind: RouteDialogue}
	}
	if d.IsAgent(ev.UserID) {
		if id, body, ok := parseAgentReply(ev.Text); ok {
			return Route{Kind: RouteAgentReply, TicketID: id, Body: body}
		}
	}
	return Route{Kind: RouteUnhandled, Reason: "no rule matched"}
}

// normalizeCommand: "New-Ticket" -> "new_ticket".
func normalizeCommand(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "-", "_")
}

// parseID принимает только десятичные цифры (без знака).
func parseID(s string) (uint64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseUint(s, 10, 64)
	return v, err == nil
}

// parseUserID — как parseID, но в диапазоне int64 (id пользователей Telegram).
func parseUserID(s string) (int64, bool) {
	v, ok := parseID(s)
	if !ok || v > 1<<63-1 {
		return 0, false
	}
	return int64(v), true
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
