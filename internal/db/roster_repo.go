package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"timeclock/internal/db/models"
	"timeclock/internal/roster"
)

var _ roster.Repo = (*DB)(nil)

const employeeColumns = `id, name, email, role, password_hash, discord_id, created_at`

func mapEmployeeWriteError(err error) error {
	switch {
	case isUniqueViolation(err, "employees_email_key"):
		return roster.ErrEmailTaken
	case isUniqueViolation(err, "employees_discord_id_key"):
		return roster.ErrDiscordLinked
	}
	return err
}

// CreateEmployee inserts e and fills in its id and creation time
func (db *DB) CreateEmployee(ctx context.Context, e *roster.Employee) error {
	query := `
		INSERT INTO employees (name, email, role, password_hash, discord_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := db.QueryRow(ctx, query,
		e.Name,
		e.Email,
		string(e.Role),
		e.PasswordHash,
		models.NullableDiscordID(e.DiscordID),
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating employee: %w", mapEmployeeWriteError(err))
	}
	return nil
}

// UpdateEmployee overwrites the writable fields of e
func (db *DB) UpdateEmployee(ctx context.Context, e *roster.Employee) error {
	query := `
		UPDATE employees
		SET name = $1, email = $2, role = $3, password_hash = $4, discord_id = $5
		WHERE id = $6`

	tag, err := db.Exec(ctx, query,
		e.Name,
		e.Email,
		string(e.Role),
		e.PasswordHash,
		models.NullableDiscordID(e.DiscordID),
		e.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating employee: %w", mapEmployeeWriteError(err))
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrNotFound
	}
	return nil
}

// DeleteEmployee removes the employee; attendance_sessions cascade
func (db *DB) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting employee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrNotFound
	}
	return nil
}

func (db *DB) EmployeeByID(ctx context.Context, id int64) (*roster.Employee, error) {
	return db.getEmployee(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id)
}

func (db *DB) EmployeeByEmail(ctx context.Context, email string) (*roster.Employee, error) {
	return db.getEmployee(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1`, email)
}

func (db *DB) EmployeeByDiscordID(ctx context.Context, discordID string) (*roster.Employee, error) {
	if discordID == "" {
		return nil, roster.ErrNotFound
	}
	return db.getEmployee(ctx, `SELECT `+employeeColumns+` FROM employees WHERE discord_id = $1`, discordID)
}

func (db *DB) getEmployee(ctx context.Context, query string, arg any) (*roster.Employee, error) {
	row := models.Employee{}
	err := db.QueryRow(ctx, query, arg).Scan(
		&row.ID,
		&row.Name,
		&row.Email,
		&row.Role,
		&row.PasswordHash,
		&row.DiscordID,
		&row.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, roster.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting employee: %w", err)
	}
	return row.Domain(), nil
}

// ListEmployees returns the whole roster ordered by id
func (db *DB) ListEmployees(ctx context.Context) ([]*roster.Employee, error) {
	rows, err := db.Query(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing employees: %w", err)
	}
	defer rows.Close()

	employees := make([]*roster.Employee, 0)
	for rows.Next() {
		row := models.Employee{}
		if err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Email,
			&row.Role,
			&row.PasswordHash,
			&row.DiscordID,
			&row.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning employee: %w", err)
		}
		employees = append(employees, row.Domain())
	}
	return employees, rows.Err()
}
