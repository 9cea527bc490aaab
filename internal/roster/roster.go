package roster

import (
	"context"
	"errors"
	"time"

	"timeclock/internal/attendance"
)

var (
	ErrNotFound           = errors.New("employee not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDiscordLinked      = errors.New("discord account already linked to another employee")
	ErrInvalid            = errors.New("invalid employee")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Employee is the roster's full record. The embedded attendance.Employee is
// what the attendance core sees.
type Employee struct {
	attendance.Employee
	PasswordHash string    `json:"-"`
	DiscordID    string    `json:"discord_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (e *Employee) Requester() attendance.Requester {
	return attendance.Requester{EmployeeID: e.ID, Role: e.Role}
}

// Repo persists employees. DeleteEmployee also removes the employee's
// attendance sessions.
type Repo interface {
	CreateEmployee(ctx context.Context, e *Employee) error
	UpdateEmployee(ctx context.Context, e *Employee) error
	DeleteEmployee(ctx context.Context, id int64) error
	EmployeeByID(ctx context.Context, id int64) (*Employee, error)
	EmployeeByEmail(ctx context.Context, email string) (*Employee, error)
	EmployeeByDiscordID(ctx context.Context, discordID string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]*Employee, error)
}
