package models

import (
	"time"

	"timeclock/internal/attendance"
	"timeclock/internal/roster"
)

// Employee is a row of employees. DiscordID is NULL when unlinked.
type Employee struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	PasswordHash string    `db:"password_hash"`
	DiscordID    *string   `db:"discord_id"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r Employee) Domain() *roster.Employee {
	e := &roster.Employee{
		Employee: attendance.Employee{
			ID:    r.ID,
			Name:  r.Name,
			Email: r.Email,
			Role:  attendance.Role(r.Role),
		},
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
	if r.DiscordID != nil {
		e.DiscordID = *r.DiscordID
	}
	return e
}

// NullableDiscordID maps an empty link to NULL so the unique constraint
// only applies to linked accounts.
func NullableDiscordID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
