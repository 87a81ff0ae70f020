// Package db provides SQLite database initialization and access.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/evcraddock/rentwise/internal/apperr"
)

// busyTimeoutMS is how long a writer waits on a locked database before SQLite reports BUSY.
const busyTimeoutMS = 5000

// DefaultPath returns the default database path: ~/.rentwise/rentwise.db
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".rentwise", "rentwise.db"), nil
}

// Open opens (or creates) a SQLite database at the given path,
// enables WAL mode and foreign keys, and runs migrations.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("pinging database: %w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := migrate(db); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return nil, fmt.Errorf("running migrations: %w (also failed to close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// dsn builds the connection string. Pragmas set here apply to every pooled connection.
func dsn(path string) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d", path, busyTimeoutMS)
}

// IsConflict reports whether err is a transient store-level conflict:
// a locked database or a violated constraint raced by a concurrent writer.
func IsConflict(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrConstraint:
		return true
	}
	return false
}

// IsUniqueViolation reports whether err is a UNIQUE constraint failure.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique
}

// RetryConflict runs fn and, when it fails with a store-level conflict, runs it
// exactly once more. A second conflict is reported as apperr.ErrConflict.
func RetryConflict(fn func() error) error {
	err := fn()
	if !IsConflict(err) {
		return err
	}
	err = fn()
	if IsConflict(err) {
		return fmt.Errorf("%w: %v", apperr.ErrConflict, err)
	}
	return err
}
