// Package errs — доменные ошибки ticket-bot. Сравнивать через errors.Is.
package errs

import "errors"

var (
	// ErrTicketNotFound — тикета с таким id нет.
	ErrTicketNotFound = errors.New("ticket not found")
	// ErrInvalidStatus — статус вне набора open, in_progress, resolved, closed.
	ErrInvalidStatus = errors.New("invalid ticket status")
)
