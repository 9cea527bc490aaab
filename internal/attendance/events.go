package attendance

import "time"

type EventType string

const (
	EventCheckIn  EventType = "check_in"
	EventCheckOut EventType = "check_out"
)

// Event reports a committed session change.
type Event struct {
	Type       EventType `json:"type"`
	SessionID  int64     `json:"session_id"`
	EmployeeID int64     `json:"employee_id"`
	At         time.Time `json:"at"`
	Worked     Optional  `json:"worked"`
}

// Notifier receives events after the store has committed them. Notify must
// not block.
type Notifier interface {
	Notify(Event)
}

type EngineOption func(*Engine)

func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) {
		e.notifier = n
	}
}
