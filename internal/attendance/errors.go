package attendance

import (
	"errors"
	"fmt"
)

// Store outcomes. Implementations of Store return these (possibly wrapped).
var (
	ErrEmployeeNotFound  = errors.New("employee not found")
	ErrOpenSessionExists = errors.New("open session exists")
	ErrNoOpenSession     = errors.New("no open session")
	ErrSessionClosed     = errors.New("session already closed")
)

// Kind is the stable, machine-readable class of an Error.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindConflict      Kind = "conflict"
	KindNoOpenSession Kind = "no_open_session"
	KindStorage       Kind = "storage"
	KindAccessDenied  Kind = "access_denied"
)

// Error is the classified failure returned by the engine and query service.
// Message is safe to show to the requester; Err is not.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindStorage for unclassified errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindStorage
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func storageError(err error) *Error {
	return &Error{Kind: KindStorage, Message: "internal server error", Err: err}
}
