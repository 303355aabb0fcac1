package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/psds-microservice/ticket-bot/internal/errs"
	"github.com/psds-microservice/ticket-bot/internal/model"
	"github.com/psds-microservice/ticket-bot/internal/service"
)

// TicketHandler — read-only HTTP доступ к тикетам для операторов.
// Изменения идут только через бота.
type TicketHandler struct {
	svc service.TicketServicer
	log *slog.Logger
}

func NewTicketHandler(svc service.TicketServicer, log *slog.Logger) *TicketHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TicketHandler{svc: svc, log: log.With("component", "http")}
}

type ticketResponse struct {
	*model.Ticket
	Messages []model.Message `json:"messages"`
}

func (h *TicketHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	t, msgs, err := h.svc.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, errs.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		h.log.Error("get ticket failed", "ticket_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get ticket"})
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	c.JSON(http.StatusOK, ticketResponse{Ticket: t, Messages: msgs})
}

func (h *TicketHandler) List(c *gin.Context) {
	var filter *model.TicketStatus
	if v := c.Query("status"); v != "" {
		s, err := model.ParseTicketStatus(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status", "valid": model.TicketStatuses})
			return
		}
		filter = &s
	}
	items, err := h.svc.ListTickets(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("list tickets failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list tickets"})
		return
	}
	if items == nil {
		items = []model.Ticket{}
	}
	c.JSON(http.StatusOK, gin.H{
		"tickets": items,
		"total":   len(items),
	})
}
