package dialogue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTracker(ttl time.Duration) (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTracker(ttl)
	tr.SetClock(clock.Now)
	return tr, clock
}

func TestIdleUserFallsThrough(t *testing.T) {
	tr, _ := newTracker(DefaultTTL)
	_, ok := tr.Advance(1, "hello")
	assert.False(t, ok)
	assert.Equal(t, StageIdle, tr.Stage(1))
}

func TestSubjectThenDescriptionCompletes(t *testing.T) {
	tr, _ := newTracker(DefaultTTL)
	tr.Start(1)
	assert.Equal(t, StageAwaitSubject, tr.Stage(1))

	res, ok := tr.Advance(1, "  Printer broken \n")
	require.True(t, ok)
	assert.False(t, res.Completed)
	assert.Equal(t, StageAwaitDescription, res.Stage)
	assert.Equal(t, "Printer broken", res.Subject)
	assert.Equal(t, StageAwaitDescription, tr.Stage(1))

	res, ok = tr.Advance(1, "It won't power on at all.")
	require.True(t, ok)
	assert.True(t, res.Completed)
	assert.Equal(t, "Printer broken", res.Subject)
	assert.Equal(t, "It won't power on at all.", res.Description)

	assert.Equal(t, StageIdle, tr.Stage(1))
	assert.Zero(t, tr.Len())
}

func TestSubjectOnlyStaysPending(t *testing.T) {
	tr, _ := newTracker(DefaultTTL)
	tr.Start(1)
	_, ok := tr.Advance(1, "Printer broken")
	require.True(t, ok)
	assert.Equal(t, StageAwaitDescription, tr.Stage(1))
	assert.True(t, tr.Pending(1))
}

func TestStartResetsPendingState(t *testing.T) {
	tr, _ := newTracker(DefaultTTL)
	tr.Start(1)
	_, _ = tr.Advance(1, "old subject")
	tr.Start(1)
	assert.Equal(t, StageAwaitSubject, tr.Stage(1))

	res, _ := tr.Advance(1, "new subject")
	assert.Equal(t, "new subject", res.Subject)
}

func TestUsersAreIndependent(t *testing.T) {
	tr, _ := newTracker(DefaultTTL)
	tr.Start(1)
	tr.Start(2)
	_, _ = tr.Advance(1, "one")
	assert.Equal(t, StageAwaitDescription, tr.Stage(1))
	assert.Equal(t, StageAwaitSubject, tr.Stage(2))
}

func TestCancel(t *testing.T) {
	tr, _ := newTracker(DefaultTTL)
	assert.False(t, tr.Cancel(1))
	tr.Start(1)
	assert.True(t, tr.Cancel(1))
	assert.False(t, tr.Pending(1))
}

func TestExpiredDialogueIsDropped(t *testing.T) {
	tr, clock := newTracker(10 * time.Minute)
	tr.Start(1)
	clock.now = clock.now.Add(11 * time.Minute)

	_, ok := tr.Advance(1, "late subject")
	assert.False(t, ok)
	assert.Zero(t, tr.Len())
}

func TestAdvanceRefreshesExpiry(t *testing.T) {
	tr, clock := newTracker(10 * time.Minute)
	tr.Start(1)
	clock.now = clock.now.Add(8 * time.Minute)
	_, ok := tr.Advance(1, "subject")
	require.True(t, ok)
	clock.now = clock.now.Add(8 * time.Minute)

	res, ok := tr.Advance(1, "description")
	require.True(t, ok)
	assert.True(t, res.Completed)
}

func TestSweep(t *testing.T) {
	tr, clock := newTracker(10 * time.Minute)
	tr.Start(1)
	clock.now = clock.now.Add(6 * time.Minute)
	tr.Start(2)
	clock.now = clock.now.Add(5 * time.Minute)

	assert.Equal(t, 1, tr.Sweep())
	assert.False(t, tr.Pending(1))
	assert.True(t, tr.Pending(2))
}

func TestZeroTTLNeverExpires(t *testing.T) {
	tr, clock := newTracker(0)
	tr.Start(1)
	clock.now = clock.now.Add(365 * 24 * time.Hour)
	assert.Zero(t, tr.Sweep())
	assert.True(t, tr.Pending(1))
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "idle", StageIdle.String())
	assert.Equal(t, "await_subject", StageAwaitSubject.String())
	assert.Equal(t, "await_description", StageAwaitDescription.String())
}
