package attendance

import (
	"context"
	"time"
)

// Query narrows a store scan. Nil fields do not restrict.
type Query struct {
	EmployeeID *int64
	DateFrom   *time.Time
	DateTo     *time.Time
	OpenOnly   bool
}

// Store is the durable session collection.
//
// InsertOpen must check for an existing open session and insert atomically
// with respect to other InsertOpen calls for the same employee, returning
// ErrOpenSessionExists when one is found and ErrEmployeeNotFound for an
// unknown employee. It returns the assigned session id.
//
// CloseOpen locates the employee's open session with the highest id, passes
// it to close and persists the result, all in one atomic step. It returns
// ErrEmployeeNotFound for an unknown employee and ErrNoOpenSession when
// there is nothing to close.
//
// List returns matching sessions ordered by date then id, both descending.
type Store interface {
	InsertOpen(ctx context.Context, s Session) (int64, error)
	CloseOpen(ctx context.Context, employeeID int64, close func(Session) (Session, error)) (Session, error)
	List(ctx context.Context, q Query) ([]Record, error)
}
