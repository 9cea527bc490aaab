package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/attendance"
	"timeclock/internal/roster"
)

func (h *harness) dialStream(ts *httptest.Server, as *roster.Employee) (*websocket.Conn, *http.Response, error) {
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/attendance/stream?access_token=" + h.tokenFor(as)
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestStreamDeliversEvents(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv)
	defer ts.Close()
	defer h.srv.Close()

	conn, _, err := h.dialStream(ts, h.admin)
	require.NoError(t, err)
	defer conn.Close()

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/attendance/checkin", h.staff, nil).Code)
	h.clock.Advance(time.Hour)
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/attendance/checkout", h.staff, nil).Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var in, out attendance.Event
	require.NoError(t, conn.ReadJSON(&in))
	require.NoError(t, conn.ReadJSON(&out))

	assert.Equal(t, attendance.EventCheckIn, in.Type)
	assert.Equal(t, h.staff.ID, in.EmployeeID)
	assert.False(t, in.Worked.Present)

	assert.Equal(t, attendance.EventCheckOut, out.Type)
	assert.Equal(t, in.SessionID, out.SessionID)
	assert.Equal(t, attendance.Some("01:00:00"), out.Worked)
}

func TestStreamIsAdminOnly(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	_, resp, err := h.dialStream(ts, h.staff)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/attendance/stream", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamClosesOnShutdown(t *testing.T) {
	h := newHarness(t)
	ts := httptest.NewServer(h.srv)
	defer ts.Close()

	conn, _, err := h.dialStream(ts, h.admin)
	require.NoError(t, err)
	defer conn.Close()

	h.srv.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return h.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}
