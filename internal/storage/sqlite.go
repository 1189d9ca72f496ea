package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// Open opens a SQLite database with the settings every store expects.
// dbPath is a filesystem path or ":memory:" for an ephemeral database.
// An in-memory database is private to the handle that opened it, so
// multi-instance setups must use a file path.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Single connection: SQLite benefits from one writer, and the pragmas
	// below stay bound to the connection they ran on
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable WAL mode for better concurrency across instances
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Cascading deletes depend on this; SQLite leaves it off by default
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Wait out short lock contention instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// nullableString binds an optional string as a statement argument
func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}
