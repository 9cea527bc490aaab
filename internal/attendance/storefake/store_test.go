package storefake

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/attendance"
)

func TestInsertOpenRejectsSecondOpenSession(t *testing.T) {
	s := New()
	s.AddEmployee(attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	id, err := s.InsertOpen(ctx, attendance.Session{EmployeeID: 1, Date: attendance.DateOf(now), CheckIn: now})
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	_, err = s.InsertOpen(ctx, attendance.Session{EmployeeID: 1, Date: attendance.DateOf(now), CheckIn: now})
	assert.ErrorIs(t, err, attendance.ErrOpenSessionExists)
}

func TestUnknownEmployee(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.InsertOpen(ctx, attendance.Session{EmployeeID: 5, CheckIn: time.Now()})
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)

	_, err = s.CloseOpen(ctx, 5, func(open attendance.Session) (attendance.Session, error) { return open, nil })
	assert.ErrorIs(t, err, attendance.ErrEmployeeNotFound)
}

func TestRemoveEmployeeCascadesSessions(t *testing.T) {
	s := New()
	s.AddEmployee(attendance.Employee{ID: 1, Name: "Ana"})
	s.AddEmployee(attendance.Employee{ID: 2, Name: "Ben"})
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.InsertOpen(ctx, attendance.Session{EmployeeID: 1, Date: attendance.DateOf(now), CheckIn: now})
	require.NoError(t, err)
	_, err = s.InsertOpen(ctx, attendance.Session{EmployeeID: 2, Date: attendance.DateOf(now), CheckIn: now})
	require.NoError(t, err)

	s.RemoveEmployee(1)

	records, err := s.List(ctx, attendance.Query{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].EmployeeID)
}

func TestCloseOpenAfterEmployeeRemoved(t *testing.T) {
	s := New()
	s.AddEmployee(attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	_, err := s.InsertOpen(ctx, attendance.Session{EmployeeID: 1, Date: attendance.DateOf(now), CheckIn: now})
	require.NoError(t, err)

	_, err = s.CloseOpen(ctx, 1, func(open attendance.Session) (attendance.Session, error) {
		s.RemoveEmployee(1)
		require.NoError(t, open.Close(now.Add(time.Hour)))
		return open, nil
	})
	assert.ErrorIs(t, err, attendance.ErrNoOpenSession)
}

func TestCanceledContext(t *testing.T) {
	s := New()
	s.AddEmployee(attendance.Employee{ID: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.InsertOpen(ctx, attendance.Session{EmployeeID: 1, CheckIn: time.Now()})
	assert.ErrorIs(t, err, context.Canceled)

	records, err := s.List(context.Background(), attendance.Query{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
