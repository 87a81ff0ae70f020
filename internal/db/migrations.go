package db

import (
	"database/sql"
	"fmt"
)

// migrations is an ordered list of SQL statements to run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		email      TEXT    NOT NULL UNIQUE,
		name       TEXT    NOT NULL DEFAULT '',
		role       TEXT    NOT NULL CHECK (role IN ('owner', 'tenant')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS api_keys (
		id           INTEGER  PRIMARY KEY AUTOINCREMENT,
		user_id      INTEGER  NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name         TEXT     NOT NULL,
		key_prefix   TEXT     NOT NULL,
		key_hash     TEXT     NOT NULL UNIQUE,
		created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
		last_used_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id   INTEGER NOT NULL REFERENCES users(id),
		title      TEXT    NOT NULL,
		address    TEXT    NOT NULL DEFAULT '',
		price      INTEGER,
		status     TEXT    NOT NULL DEFAULT 'active',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id          INTEGER  PRIMARY KEY AUTOINCREMENT,
		property_id INTEGER  NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		owner_id    INTEGER  NOT NULL REFERENCES users(id),
		tenant_id   INTEGER  NOT NULL REFERENCES users(id),
		created_at  DATETIME NOT NULL,
		UNIQUE (property_id, tenant_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_owner ON conversations(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_tenant ON conversations(tenant_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              INTEGER  PRIMARY KEY AUTOINCREMENT,
		conversation_id INTEGER  NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id       INTEGER  NOT NULL REFERENCES users(id),
		body            TEXT     NOT NULL CHECK (length(trim(body)) > 0),
		is_read         INTEGER  NOT NULL DEFAULT 0,
		created_at      DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at, id)`,
	`CREATE TABLE IF NOT EXISTS visit_requests (
		id          INTEGER  PRIMARY KEY AUTOINCREMENT,
		property_id INTEGER  NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		user_id     INTEGER  NOT NULL REFERENCES users(id),
		visit_date  DATETIME NOT NULL,
		status      TEXT     NOT NULL DEFAULT 'pending'
		            CHECK (status IN ('pending', 'confirmed', 'completed', 'canceled')),
		created_at  DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_visit_requests_property ON visit_requests(property_id)`,
	`CREATE INDEX IF NOT EXISTS idx_visit_requests_user ON visit_requests(user_id)`,
}

// migrate runs all migrations in order.
func migrate(db *sql.DB) error {
	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}

	// Column additions, skipped when the column already exists
	columnMigrations := []struct {
		table, column, definition string
	}{
		{"visit_requests", "canceled_at", "DATETIME"},
	}

	for _, cm := range columnMigrations {
		if err := addColumnIfNotExists(db, cm.table, cm.column, cm.definition); err != nil {
			return fmt.Errorf("adding %s.%s: %w", cm.table, cm.column, err)
		}
	}

	return nil
}

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(db *sql.DB, table, column, definition string) (err error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("checking table info: %w", err)
	}

	found := false
	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scanning column info: %w", err)
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return fmt.Errorf("iterating columns: %w", err)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing rows: %w", err)
	}
	if found {
		return nil
	}

	_, err = db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, definition))
	return err
}
