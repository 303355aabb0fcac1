package model

import (
	"testing"

	"github.com/psds-microservice/ticket-bot/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTicketStatus(t *testing.T) {
	for _, raw := range []string{"open", "in_progress", "Resolved", " CLOSED "} {
		s, err := ParseTicketStatus(raw)
		require.NoError(t, err, raw)
		assert.True(t, s.Valid())
	}

	_, err := ParseTicketStatus("resolu")
	require.ErrorIs(t, err, errs.ErrInvalidStatus)

	_, err = ParseTicketStatus("")
	require.ErrorIs(t, err, errs.ErrInvalidStatus)
}

func TestStatusList(t *testing.T) {
	assert.Equal(t, "open, in_progress, resolved, closed", StatusList())
}
