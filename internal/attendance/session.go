package attendance

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	TimeOfDayLayout = "15:04:05"
)

// Role is the coarse access class of an employee.
type Role string

const (
	RoleStaff Role = "staff"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Employee is read-only reference data owned by the roster.
type Employee struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
)

// Session is one check-in to check-out interval. CheckOut and Worked are
// nil while the session is open.
type Session struct {
	ID         int64
	EmployeeID int64
	Date       time.Time
	CheckIn    time.Time
	CheckOut   *time.Time
	Worked     *time.Duration
}

func (s Session) State() State {
	if s.CheckOut == nil {
		return StateOpen
	}
	return StateClosed
}

// Close records the check-out instant and derives the worked duration.
// A check-out earlier than the check-in is pinned to the check-in.
func (s *Session) Close(at time.Time) error {
	if s.State() == StateClosed {
		return ErrSessionClosed
	}
	if at.Before(s.CheckIn) {
		at = s.CheckIn
	}
	worked := at.Sub(s.CheckIn)
	s.CheckOut = &at
	s.Worked = &worked
	return nil
}

// DateOf returns the calendar date of t as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// FormatDuration renders d as HH:MM:SS. Hours are not wrapped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Optional is a rendered value that may be absent. It marshals as
// {"present":false} or {"present":true,"value":"..."} so an absent reading
// is never confused with missing data.
type Optional struct {
	Value   string
	Present bool
}

func Some(v string) Optional {
	return Optional{Value: v, Present: true}
}

func (o Optional) String() string {
	if !o.Present {
		return "-"
	}
	return o.Value
}

func (o Optional) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte(`{"present":false}`), nil
	}
	return json.Marshal(struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}{true, o.Value})
}

func (o *Optional) UnmarshalJSON(data []byte) error {
	var raw struct {
		Present bool   `json:"present"`
		Value   string `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	o.Present = raw.Present
	o.Value = raw.Value
	return nil
}

// View is the reporting shape of a session.
type View struct {
	ID            int64    `json:"id"`
	EmployeeID    int64    `json:"employee_id"`
	EmployeeName  string   `json:"employee_name"`
	EmployeeEmail string   `json:"employee_email"`
	Date          string   `json:"date"`
	CheckIn       string   `json:"check_in"`
	CheckOut      Optional `json:"check_out"`
	Worked        Optional `json:"worked"`
	State         State    `json:"state"`
}

// Record is a session joined with the owning employee's display fields.
type Record struct {
	Session
	EmployeeName  string
	EmployeeEmail string
}

func (r Record) View() View {
	v := View{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		EmployeeName:  r.EmployeeName,
		EmployeeEmail: r.EmployeeEmail,
		Date:          r.Date.Format(DateLayout),
		CheckIn:       r.CheckIn.Format(TimeOfDayLayout),
		State:         r.State(),
	}
	if r.CheckOut != nil {
		v.CheckOut = Some(r.CheckOut.Format(TimeOfDayLayout))
	}
	if r.Worked != nil {
		v.Worked = Some(FormatDuration(*r.Worked))
	}
	return v
}
