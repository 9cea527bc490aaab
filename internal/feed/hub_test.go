package feed

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/attendance"
)

func TestHubFansOut(t *testing.T) {
	h := NewHub(4, zerolog.Nop())
	a, b := h.Subscribe(), h.Subscribe()

	ev := attendance.Event{Type: attendance.EventCheckIn, SessionID: 7, EmployeeID: 3}
	h.Notify(ev)

	assert.Equal(t, ev, <-a.C)
	assert.Equal(t, ev, <-b.C)
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Zero(t, h.Len())

	h.Notify(attendance.Event{Type: attendance.EventCheckOut})
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub(1, zerolog.Nop())
	slow := h.Subscribe()

	h.Notify(attendance.Event{SessionID: 1})
	h.Notify(attendance.Event{SessionID: 2})

	require.Zero(t, h.Len())
	first, ok := <-slow.C
	require.True(t, ok)
	assert.Equal(t, int64(1), first.SessionID)
	_, ok = <-slow.C
	assert.False(t, ok)
}
