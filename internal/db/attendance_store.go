package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"timeclock/internal/attendance"
	"timeclock/internal/db/models"
)

var _ attendance.Store = (*DB)(nil)

const openSessionIndex = "attendance_sessions_one_open"

const sessionColumns = `a.id, a.employee_id, a.work_date, a.check_in, a.check_out, a.worked_us`

func formatDate(d *time.Time) *string {
	if d == nil {
		return nil
	}
	s := d.Format(attendance.DateLayout)
	return &s
}

func (db *DB) localize(r *models.AttendanceSession) {
	r.CheckIn = db.inZone(r.CheckIn)
	if r.CheckOut != nil {
		out := db.inZone(*r.CheckOut)
		r.CheckOut = &out
	}
}

// lockEmployee serialises check-in and check-out for one employee for the
// rest of tx. Other employees are not blocked.
func lockEmployee(ctx context.Context, tx pgx.Tx, employeeID int64) error {
	var id int64
	err := tx.QueryRow(ctx,
		`SELECT id FROM employees WHERE id = $1 FOR NO KEY UPDATE`,
		employeeID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return attendance.ErrEmployeeNotFound
	}
	if err != nil {
		return fmt.Errorf("error locking employee: %w", err)
	}
	return nil
}

// InsertOpen creates an open session unless the employee already has one
func (db *DB) InsertOpen(ctx context.Context, s attendance.Session) (int64, error) {
	var id int64
	err := pgx.BeginTxFunc(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockEmployee(ctx, tx, s.EmployeeID); err != nil {
			return err
		}

		var openID int64
		err := tx.QueryRow(ctx, `
			SELECT id
			FROM attendance_sessions
			WHERE employee_id = $1 AND check_out IS NULL
			LIMIT 1`,
			s.EmployeeID,
		).Scan(&openID)
		if err == nil {
			return attendance.ErrOpenSessionExists
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("error checking open session: %w", err)
		}

		query := `
			INSERT INTO attendance_sessions (employee_id, work_date, check_in)
			VALUES ($1, $2::date, $3)
			RETURNING id`
		if err := tx.QueryRow(ctx, query,
			s.EmployeeID,
			s.Date.Format(attendance.DateLayout),
			wallClock(s.CheckIn),
		).Scan(&id); err != nil {
			return fmt.Errorf("error creating session: %w", err)
		}
		return nil
	})
	if isUniqueViolation(err, openSessionIndex) {
		return 0, attendance.ErrOpenSessionExists
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CloseOpen closes the employee's latest open session
func (db *DB) CloseOpen(ctx context.Context, employeeID int64, close func(attendance.Session) (attendance.Session, error)) (attendance.Session, error) {
	var closed attendance.Session
	err := pgx.BeginTxFunc(ctx, db, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockEmployee(ctx, tx, employeeID); err != nil {
			return err
		}

		row := models.AttendanceSession{}
		err := tx.QueryRow(ctx, `
			SELECT `+sessionColumns+`
			FROM attendance_sessions a
			WHERE a.employee_id = $1 AND a.check_out IS NULL
			ORDER BY a.id DESC
			LIMIT 1
			FOR UPDATE`,
			employeeID,
		).Scan(
			&row.ID,
			&row.EmployeeID,
			&row.WorkDate,
			&row.CheckIn,
			&row.CheckOut,
			&row.WorkedUS,
		)
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.ErrNoOpenSession
		}
		if err != nil {
			return fmt.Errorf("error getting open session: %w", err)
		}

		db.localize(&row)
		closed, err = close(row.Domain())
		if err != nil {
			return err
		}
		if closed.CheckOut == nil || closed.Worked == nil {
			return fmt.Errorf("session %d was not closed", row.ID)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE attendance_sessions
			SET check_out = $1, worked_us = $2
			WHERE id = $3 AND check_out IS NULL`,
			wallClock(*closed.CheckOut),
			closed.Worked.Microseconds(),
			row.ID,
		)
		if err != nil {
			return fmt.Errorf("error closing session: %w", err)
		}
		if tag.RowsAffected() != 1 {
			return attendance.ErrNoOpenSession
		}
		return nil
	})
	if err != nil {
		return attendance.Session{}, err
	}
	return closed, nil
}

// List retrieves sessions with their employee, newest first
func (db *DB) List(ctx context.Context, q attendance.Query) ([]attendance.Record, error) {
	query := `
		SELECT ` + sessionColumns + `, e.name, e.email
		FROM attendance_sessions a
		JOIN employees e ON a.employee_id = e.id
		WHERE ($1::bigint IS NULL OR a.employee_id = $1::bigint)
		AND ($2::date IS NULL OR a.work_date >= $2::date)
		AND ($3::date IS NULL OR a.work_date <= $3::date)
		AND (NOT $4::boolean OR a.check_out IS NULL)
		ORDER BY a.work_date DESC, a.id DESC`

	rows, err := db.Query(ctx, query,
		q.EmployeeID,
		formatDate(q.DateFrom),
		formatDate(q.DateTo),
		q.OpenOnly,
	)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	records := make([]attendance.Record, 0)
	for rows.Next() {
		r := models.AttendanceRecord{}
		err := rows.Scan(
			&r.ID,
			&r.EmployeeID,
			&r.WorkDate,
			&r.CheckIn,
			&r.CheckOut,
			&r.WorkedUS,
			&r.EmployeeName,
			&r.EmployeeEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		db.localize(&r.AttendanceSession)
		records = append(records, r.Domain())
	}
	return records, rows.Err()
}
