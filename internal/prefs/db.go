// Package prefs keeps the per-installation application state: theme,
// reading intensity, the auth flag and the writer profile. State is loaded
// once when the store opens and written through on every change.
package prefs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/pensieri/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS app_state (
	key        TEXT PRIMARY KEY,
	schema     INTEGER NOT NULL,
	payload    BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB is the SQLite key-value table behind the store.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("prefs: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prefs: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prefs: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Row is one stored state entry.
type Row struct {
	Key       string
	Schema    uint16
	Payload   []byte
	UpdatedAt time.Time
}

// Get returns the row for key or apperr.ErrNotFound.
func (db *DB) Get(key string) (*Row, error) {
	r := Row{Key: key}
	err := db.conn.QueryRow(`SELECT schema, payload, updated_at FROM app_state WHERE key = ?`, key).
		Scan(&r.Schema, &r.Payload, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("prefs: get %s: %w", key, err)
	}
	return &r, nil
}

// Put inserts or replaces the row for r.Key.
func (db *DB) Put(r Row) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO app_state (key, schema, payload, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			schema     = excluded.schema,
			payload    = excluded.payload,
			updated_at = excluded.updated_at
	`, r.Key, r.Schema, r.Payload, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("prefs: put %s: %w", r.Key, err)
	}
	return nil
}
