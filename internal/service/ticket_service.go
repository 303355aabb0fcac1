package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/psds-microservice/ticket-bot/internal/errs"
	"github.com/psds-microservice/ticket-bot/internal/model"
	"gorm.io/gorm"
)

// TicketServicer — интерфейс для бота и HTTP-хендлеров (Dependency Inversion).
type TicketServicer interface {
	CreateTicket(ctx context.Context, userID int64, username, subject, description string) (uint64, error)
	AddMessage(ctx context.Context, ticketID uint64, senderID int64, senderName, content string) (*model.Message, error)
	GetTicket(ctx context.Context, ticketID uint64) (*model.Ticket, []model.Message, error)
	ListTickets(ctx context.Context, status *model.TicketStatus) ([]model.Ticket, error)
	SetStatus(ctx context.Context, ticketID uint64, status model.TicketStatus) error
	AssignTicket(ctx context.Context, ticketID uint64, agentID int64) error
}

// maxTicketID — id в БД знаковые (BIGINT); больших тикетов не бывает.
const maxTicketID = math.MaxInt64

type TicketService struct {
	db  *gorm.DB
	now func() time.Time
}

// Option настраивает TicketService.
type Option func(*TicketService)

// WithClock подменяет источник времени (тесты).
func WithClock(now func() time.Time) Option {
	return func(s *TicketService) { s.now = now }
}

func NewTicketService(db *gorm.DB, opts ...Option) *TicketService {
	s := &TicketService{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTicket создаёт тикет и первое сообщение (описание) в одной транзакции.
func (s *TicketService) CreateTicket(ctx context.Context, userID int64, username, subject, description string) (uint64, error) {
	now := s.now()
	t := model.Ticket{
		UserID:      userID,
		Username:    username,
		Subject:     subject,
		Description: description,
		Status:      model.TicketStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
		first := model.Message{
			TicketID:   t.ID,
			SenderID:   userID,
			SenderName: username,
			Content:    description,
			Timestamp:  now,
		}
		if err := tx.Create(&first).Error; err != nil {
			return fmt.Errorf("insert first message: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

// AddMessage добавляет сообщение и обновляет updated_at тикета.
func (s *TicketService) AddMessage(ctx context.Context, ticketID uint64, senderID int64, senderName, content string) (*model.Message, error) {
	if ticketID > maxTicketID {
		return nil, errs.ErrTicketNotFound
	}
	now := s.now()
	msg := model.Message{
		TicketID:   ticketID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Timestamp:  now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Ticket{}).Where("id = ?", ticketID).Update("updated_at", now)
		if res.Error != nil {
			return fmt.Errorf("touch ticket: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.ErrTicketNotFound
		}
		if err := tx.Create(&msg).Error; err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *TicketService) GetTicket(ctx context.Context, ticketID uint64) (*model.Ticket, []model.Message, error) {
	if ticketID > maxTicketID {
		return nil, nil, errs.ErrTicketNotFound
	}
	var t model.Ticket
	if err := s.db.WithContext(ctx).First(&t, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errs.ErrTicketNotFound
		}
		return nil, nil, err
	}
	var msgs []model.Message
	err := s.db.WithContext(ctx).
		Where("ticket_id = ?", ticketID).
		Order("timestamp ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list messages: %w", err)
	}
	return &t, msgs, nil
}

// ListTickets возвращает тикеты, самые свежие по updated_at первыми.
// status == nil — без фильтра.
func (s *TicketService) ListTickets(ctx context.Context, status *model.TicketStatus) ([]model.Ticket, error) {
	var items []model.Ticket
	tx := s.db.WithContext(ctx).Model(&model.Ticket{})
	if status != nil {
		tx = tx.Where("status = ?", string(*status))
	}
	if err := tx.Order("updated_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *TicketService) SetStatus(ctx context.Context, ticketID uint64, status model.TicketStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidStatus, status)
	}
	return s.update(ctx, ticketID, map[string]interface{}{"status": string(status)})
}

// AssignTicket не проверяет, что agentID есть в списке агентов.
func (s *TicketService) AssignTicket(ctx context.Context, ticketID uint64, agentID int64) error {
	return s.update(ctx, ticketID, map[string]interface{}{"assigned_to": agentID})
}

func (s *TicketService) update(ctx context.Context, ticketID uint64, changes map[string]interface{}) error {
	if ticketID > maxTicketID {
		return errs.ErrTicketNotFound
	}
	changes["updated_at"] = s.now()
	res := s.db.WithContext(ctx).Model(&model.Ticket{}).Where("id = ?", ticketID).Updates(changes)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrTicketNotFound
	}
	return nil
}
