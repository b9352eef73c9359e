// Package db provides the SQLite connection and schema for the day/night switcher.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// schema is applied on every open. Settings live in a single bucketed
// string table: the "global" bucket carries shared defaults, "entity:<id>"
// buckets carry per-entity values.
const schema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		bucket TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (bucket, key)
	);
	CREATE INDEX IF NOT EXISTS idx_kv_bucket ON kv_store(bucket);
`

// DB wraps the SQLite database connection
type DB struct {
	*sql.DB
}

// Open opens the database in WAL mode and applies the schema. The busy
// timeout covers concurrent writers from timer callbacks and API handlers.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
