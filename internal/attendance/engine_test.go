package attendance_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeclock/internal/attendance"
	"timeclock/internal/attendance/storefake"
	"timeclock/internal/clock"
)

type fixture struct {
	store  *storefake.Store
	clock  *clock.Manual
	engine *attendance.Engine
	query  *attendance.QueryService
}

func newFixture(t *testing.T, employees ...attendance.Employee) *fixture {
	t.Helper()

	store := storefake.New()
	for _, e := range employees {
		store.AddEmployee(e)
	}
	clk := clock.NewManual(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return &fixture{
		store:  store,
		clock:  clk,
		engine: attendance.NewEngine(store, clk, zerolog.Nop()),
		query:  attendance.NewQueryService(store, zerolog.Nop()),
	}
}

func at(day, hour, min, sec int) time.Time {
	return time.Date(2024, 3, day, hour, min, sec, 0, time.UTC)
}

func TestCheckInCheckOutScenario(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 42, Name: "Grace", Role: attendance.RoleStaff})
	ctx := context.Background()

	f.clock.Set(at(1, 9, 0, 0))
	id, err := f.engine.CheckIn(ctx, 42)
	require.NoError(t, err)

	f.clock.Set(at(1, 17, 30, 0))
	closed, err := f.engine.CheckOut(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, id, closed.ID)
	assert.Equal(t, attendance.StateClosed, closed.State())
	require.NotNil(t, closed.Worked)
	assert.Equal(t, 8*time.Hour+30*time.Minute, *closed.Worked)
	assert.Equal(t, "08:30:00", attendance.FormatDuration(*closed.Worked))
	assert.Equal(t, attendance.DateOf(at(1, 0, 0, 0)), closed.Date)
}

func TestSecondSessionSameDayAfterClose(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 42, Name: "Grace"})
	ctx := context.Background()

	f.clock.Set(at(1, 9, 0, 0))
	first, err := f.engine.CheckIn(ctx, 42)
	require.NoError(t, err)
	f.clock.Set(at(1, 17, 30, 0))
	_, err = f.engine.CheckOut(ctx, 42)
	require.NoError(t, err)

	f.clock.Set(at(1, 18, 0, 0))
	second, err := f.engine.CheckIn(ctx, 42)
	require.NoError(t, err)
	assert.Greater(t, second, first)

	views, err := f.query.ListOpen(ctx, attendance.Requester{EmployeeID: 42, Role: attendance.RoleStaff})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, second, views[0].ID)
	assert.Equal(t, "2024-03-01", views[0].Date)
	assert.Equal(t, "18:00:00", views[0].CheckIn)
	assert.Equal(t, attendance.StateOpen, views[0].State)
}

func TestCheckInTwiceConflicts(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()

	_, err := f.engine.CheckIn(ctx, 1)
	require.NoError(t, err)

	_, err = f.engine.CheckIn(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, attendance.KindConflict, attendance.KindOf(err))
	assert.ErrorIs(t, err, attendance.ErrOpenSessionExists)

	var ae *attendance.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "open session exists", ae.Message)
}

func TestCheckOutWithoutOpenSession(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ana"})

	_, err := f.engine.CheckOut(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, attendance.KindNoOpenSession, attendance.KindOf(err))

	var ae *attendance.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "nothing to close", ae.Message)
}

func TestCheckOutTwiceFails(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()

	_, err := f.engine.CheckIn(ctx, 1)
	require.NoError(t, err)
	_, err = f.engine.CheckOut(ctx, 1)
	require.NoError(t, err)

	_, err = f.engine.CheckOut(ctx, 1)
	assert.Equal(t, attendance.KindNoOpenSession, attendance.KindOf(err))
}

func TestZeroDurationIsNotAnError(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()

	_, err := f.engine.CheckIn(ctx, 1)
	require.NoError(t, err)
	closed, err := f.engine.CheckOut(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), *closed.Worked)
}

func TestClockMovingBackwardsNeverGivesNegativeDuration(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()

	f.clock.Set(at(2, 9, 0, 0))
	_, err := f.engine.CheckIn(ctx, 1)
	require.NoError(t, err)

	f.clock.Set(at(1, 23, 0, 0))
	closed, err := f.engine.CheckOut(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), *closed.Worked)
	assert.False(t, closed.CheckOut.Before(closed.CheckIn))
}

func TestSessionAcrossMidnightKeepsCheckInDate(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ana"})
	ctx := context.Background()

	f.clock.Set(at(1, 22, 0, 0))
	_, err := f.engine.CheckIn(ctx, 1)
	require.NoError(t, err)

	f.clock.Set(at(2, 1, 15, 0))
	closed, err := f.engine.CheckOut(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Hour+15*time.Minute, *closed.Worked)
	assert.Equal(t, attendance.DateOf(at(1, 0, 0, 0)), closed.Date)
}

func TestUnknownEmployeeIsValidationError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CheckIn(ctx, 99)
	assert.Equal(t, attendance.KindValidation, attendance.KindOf(err))

	_, err = f.engine.CheckOut(ctx, 99)
	assert.Equal(t, attendance.KindValidation, attendance.KindOf(err))

	_, err = f.engine.CheckIn(ctx, 0)
	assert.Equal(t, attendance.KindValidation, attendance.KindOf(err))
}

func TestConcurrentCheckInsAllowOnlyOne(t *testing.T) {
	f := newFixture(t,
		attendance.Employee{ID: 1, Name: "Ana"},
		attendance.Employee{ID: 2, Name: "Ben"},
	)
	ctx := context.Background()

	const attempts = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded = map[int64]int{}
		conflicts = map[int64]int{}
	)
	for i := 0; i < attempts; i++ {
		for _, emp := range []int64{1, 2} {
			wg.Add(1)
			go func(emp int64) {
				defer wg.Done()
				_, err := f.engine.CheckIn(ctx, emp)
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded[emp]++
				} else if attendance.KindOf(err) == attendance.KindConflict {
					conflicts[emp]++
				}
			}(emp)
		}
	}
	wg.Wait()

	for _, emp := range []int64{1, 2} {
		assert.Equal(t, 1, succeeded[emp], "employee %d", emp)
		assert.Equal(t, attempts-1, conflicts[emp], "employee %d", emp)
	}

	open, err := f.query.ListOpen(ctx, attendance.Requester{EmployeeID: 1, Role: attendance.RoleAdmin})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestSessionCloseIsTerminal(t *testing.T) {
	s := attendance.Session{CheckIn: at(1, 9, 0, 0)}
	require.NoError(t, s.Close(at(1, 10, 0, 0)))
	assert.ErrorIs(t, s.Close(at(1, 11, 0, 0)), attendance.ErrSessionClosed)
	assert.Equal(t, time.Hour, *s.Worked)
}

type recorder struct {
	mu     sync.Mutex
	events []attendance.Event
}

func (r *recorder) Notify(ev attendance.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func TestEngineNotifiesCommittedChanges(t *testing.T) {
	f := newFixture(t, attendance.Employee{ID: 1, Name: "Ann", Role: attendance.RoleStaff})
	rec := &recorder{}
	engine := attendance.NewEngine(f.store, f.clock, zerolog.Nop(), attendance.WithNotifier(rec))
	ctx := context.Background()

	id, err := engine.CheckIn(ctx, 1)
	require.NoError(t, err)
	_, err = engine.CheckIn(ctx, 1)
	require.Error(t, err)

	f.clock.Advance(45 * time.Minute)
	_, err = engine.CheckOut(ctx, 1)
	require.NoError(t, err)
	_, err = engine.CheckOut(ctx, 1)
	require.Error(t, err)

	require.Len(t, rec.events, 2, "failed operations are not reported")
	assert.Equal(t, attendance.Event{
		Type: attendance.EventCheckIn, SessionID: id, EmployeeID: 1, At: at(1, 9, 0, 0),
	}, rec.events[0])
	assert.Equal(t, attendance.Event{
		Type: attendance.EventCheckOut, SessionID: id, EmployeeID: 1, At: at(1, 9, 45, 0),
		Worked: attendance.Some("00:45:00"),
	}, rec.events[1])
}

type failingStore struct{ err error }

func (s failingStore) InsertOpen(context.Context, attendance.Session) (int64, error) {
	return 0, s.err
}

func (s failingStore) CloseOpen(context.Context, int64, func(attendance.Session) (attendance.Session, error)) (attendance.Session, error) {
	return attendance.Session{}, s.err
}

func (s failingStore) List(context.Context, attendance.Query) ([]attendance.Record, error) {
	return nil, s.err
}

func TestStorageFailuresAreClassified(t *testing.T) {
	driverErr := errors.New("pgconn: server closed the connection unexpectedly")
	store := failingStore{err: driverErr}
	rec := &recorder{}
	engine := attendance.NewEngine(store, clock.NewManual(at(1, 9, 0, 0)), zerolog.Nop(), attendance.WithNotifier(rec))
	query := attendance.NewQueryService(store, zerolog.Nop())
	ctx := context.Background()
	staff := attendance.Requester{EmployeeID: 1, Role: attendance.RoleStaff}

	_, checkInErr := engine.CheckIn(ctx, 1)
	_, checkOutErr := engine.CheckOut(ctx, 1)
	_, listErr := query.ListSessions(ctx, staff, attendance.Filter{})
	_, openErr := query.ListOpen(ctx, staff)

	for name, err := range map[string]error{
		"check-in":  checkInErr,
		"check-out": checkOutErr,
		"list":      listErr,
		"open":      openErr,
	} {
		var ae *attendance.Error
		require.ErrorAs(t, err, &ae, name)
		assert.Equal(t, attendance.KindStorage, ae.Kind, name)
		assert.Equal(t, "internal server error", ae.Message, name)
		assert.ErrorIs(t, err, driverErr, name)
	}
	assert.Empty(t, rec.events)
}
