package attendance

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"timeclock/internal/clock"
)

// Engine opens and closes attendance sessions.
type Engine struct {
	store    Store
	clock    clock.Clock
	log      zerolog.Logger
	notifier Notifier
}

func NewEngine(store Store, clk clock.Clock, logger zerolog.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		store: store,
		clock: clk,
		log:   logger.With().Str("component", "attendance").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) notify(ev Event) {
	if e.notifier != nil {
		e.notifier.Notify(ev)
	}
}

// CheckIn opens a session for employeeID dated at the current clock
// reading and returns its id.
func (e *Engine) CheckIn(ctx context.Context, employeeID int64) (int64, error) {
	if employeeID <= 0 {
		return 0, validationf("employee id is required")
	}

	now := e.clock.Now()
	id, err := e.store.InsertOpen(ctx, Session{
		EmployeeID: employeeID,
		Date:       DateOf(now),
		CheckIn:    now,
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrOpenSessionExists):
		e.log.Info().Int64("employee_id", employeeID).Msg("check-in rejected, session already open")
		return 0, &Error{Kind: KindConflict, Message: "open session exists", Err: err}
	case errors.Is(err, ErrEmployeeNotFound):
		return 0, &Error{Kind: KindValidation, Message: "unknown employee", Err: err}
	default:
		e.log.Error().Err(err).Int64("employee_id", employeeID).Msg("check-in failed")
		return 0, storageError(err)
	}

	e.log.Info().Int64("employee_id", employeeID).Int64("session_id", id).Msg("checked in")
	e.notify(Event{Type: EventCheckIn, SessionID: id, EmployeeID: employeeID, At: now})
	return id, nil
}

// CheckOut closes the employee's most recent open session and returns it.
func (e *Engine) CheckOut(ctx context.Context, employeeID int64) (Session, error) {
	if employeeID <= 0 {
		return Session{}, validationf("employee id is required")
	}

	closed, err := e.store.CloseOpen(ctx, employeeID, func(open Session) (Session, error) {
		if err := open.Close(e.clock.Now()); err != nil {
			return Session{}, err
		}
		return open, nil
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNoOpenSession):
		e.log.Info().Int64("employee_id", employeeID).Msg("check-out rejected, nothing open")
		return Session{}, &Error{Kind: KindNoOpenSession, Message: "nothing to close", Err: err}
	case errors.Is(err, ErrEmployeeNotFound):
		return Session{}, &Error{Kind: KindValidation, Message: "unknown employee", Err: err}
	default:
		e.log.Error().Err(err).Int64("employee_id", employeeID).Msg("check-out failed")
		return Session{}, storageError(err)
	}

	e.log.Info().
		Int64("employee_id", employeeID).
		Int64("session_id", closed.ID).
		Dur("worked", *closed.Worked).
		Msg("checked out")
	e.notify(Event{
		Type:       EventCheckOut,
		SessionID:  closed.ID,
		EmployeeID: employeeID,
		At:         *closed.CheckOut,
		Worked:     Some(FormatDuration(*closed.Worked)),
	})
	return closed, nil
}
