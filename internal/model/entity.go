package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/psds-microservice/ticket-bot/internal/errs"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// TicketStatuses — допустимые статусы в порядке жизненного цикла.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
}

// Valid сообщает, входит ли статус в фиксированный набор.
func (s TicketStatus) Valid() bool {
	for _, v := range TicketStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseTicketStatus приводит ввод к нижнему регистру и проверяет по набору.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	s := TicketStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", errs.ErrInvalidStatus, raw)
	}
	return s, nil
}

// StatusList returns the valid statuses joined with ", " for usage replies.
func StatusList() string {
	out := make([]string, len(TicketStatuses))
	for i, s := range TicketStatuses {
		out[i] = string(s)
	}
	return strings.Join(out, ", ")
}

type Ticket struct {
	ID          uint64       `gorm:"primaryKey" json:"id"`
	UserID      int64        `gorm:"index;not null" json:"user_id"`
	Username    string       `gorm:"type:text" json:"username"`
	Subject     string       `gorm:"type:text" json:"subject"`
	Description string       `gorm:"type:text" json:"description"`
	Status      TicketStatus `gorm:"type:varchar(32);index;not null;default:open" json:"status"`
	AssignedTo  *int64       `gorm:"index" json:"assigned_to,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false;index" json:"updated_at"`
}

type Message struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	TicketID   uint64    `gorm:"index;not null" json:"ticket_id"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `gorm:"type:text" json:"sender_name"`
	Content    string    `gorm:"type:text" json:"content"`
	Timestamp  time.Time `gorm:"not null" json:"timestamp"`
}
