package httpapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"timeclock/internal/attendance"
)

var errConnRefused = errors.New("dial tcp 10.0.0.7:5432: connect: connection refused")

type unavailableStore struct{}

func (unavailableStore) InsertOpen(context.Context, attendance.Session) (int64, error) {
	return 0, errConnRefused
}

func (unavailableStore) CloseOpen(context.Context, int64, func(attendance.Session) (attendance.Session, error)) (attendance.Session, error) {
	return attendance.Session{}, errConnRefused
}

func (unavailableStore) List(context.Context, attendance.Query) ([]attendance.Record, error) {
	return nil, errConnRefused
}

func TestStorageFailureIsGeneric500(t *testing.T) {
	h := newHarnessWithSessions(t, unavailableStore{})

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/attendance/checkin"},
		{http.MethodPost, "/api/attendance/checkout"},
		{http.MethodGet, "/api/attendance"},
		{http.MethodGet, "/api/attendance/open"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := h.do(tc.method, tc.path, h.staff, nil)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"kind":"storage","message":"internal server error"}`, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "10.0.0.7")
		})
	}
}
