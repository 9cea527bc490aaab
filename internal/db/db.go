package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"timeclock/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

type DB struct {
	*pgxpool.Pool
	loc *time.Location
}

// SetLocation sets the zone that stored wall-clock times are read back in.
// It defaults to time.Local, the zone of clock.System.
func (db *DB) SetLocation(loc *time.Location) {
	db.loc = loc
}

// wallClock keeps the reading of t and drops its zone, so a TIMESTAMP
// column stores what the clock showed.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// inZone reads a zoneless TIMESTAMP value as a reading in the store's zone.
func (db *DB) inZone(t time.Time) time.Time {
	loc := db.loc
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

func New(ctx context.Context, config config.Database) (*DB, error) {
	return Open(ctx, config.URL(), config.MaxConns, config.MinConns)
}

// Open connects to connString and pings the server.
func Open(ctx context.Context, connString string, maxConns, minConns int32) (*DB, error) {
	// Create a configuration object
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	// Configure connection pool and statement cache
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	if minConns > 0 {
		cfg.MinConns = minConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}

	return &DB{Pool: pool, loc: time.Local}, nil
}

// Migrate applies the embedded migrations in file-name order. Every
// statement is idempotent so re-running is safe.
func (db *DB) Migrate(ctx context.Context) ([]string, error) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("error listing migrations: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		migration, err := migrations.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("error reading migration %s: %w", name, err)
		}
		if _, err := db.Exec(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("error executing migration %s: %w", name, err)
		}
	}
	return names, nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
