package kv

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteBucket stores its keys as rows of the shared kv_store table, with
// the bucket name as the row namespace. Handles are stateless, so any
// number of them can point at the same bucket.
type SQLiteBucket struct {
	db   *sql.DB
	name string
}

// NewSQLiteBucket creates a new SQLite-backed bucket.
func NewSQLiteBucket(db *sql.DB, name string) *SQLiteBucket {
	return &SQLiteBucket{db: db, name: name}
}

// Name returns the bucket name.
func (b *SQLiteBucket) Name() string { return b.name }

// Set saves a value with the given key. Writes are upserts: created_at is
// kept from the first write, updated_at tracks the latest.
func (b *SQLiteBucket) Set(key, value string) error {
	now := time.Now().UTC().Unix()
	_, err := b.db.Exec(`
		INSERT INTO kv_store (bucket, key, value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, b.name, key, value, now, now)
	if err != nil {
		return fmt.Errorf("failed to store value: %w", err)
	}
	return nil
}

// Get retrieves a value by key.
func (b *SQLiteBucket) Get(key string) (string, bool, error) {
	var value string
	err := b.db.QueryRow(
		`SELECT value FROM kv_store WHERE bucket = ? AND key = ?`,
		b.name, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get value: %w", err)
	}
	return value, true, nil
}

// Delete removes a key, reporting whether it existed.
func (b *SQLiteBucket) Delete(key string) (bool, error) {
	result, err := b.db.Exec(`DELETE FROM kv_store WHERE bucket = ? AND key = ?`, b.name, key)
	if err != nil {
		return false, fmt.Errorf("failed to delete key: %w", err)
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// Keys returns all keys in the bucket.
func (b *SQLiteBucket) Keys() ([]string, error) {
	rows, err := b.db.Query(`SELECT key FROM kv_store WHERE bucket = ?`, b.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Clear drops every key in the bucket.
func (b *SQLiteBucket) Clear() error {
	if _, err := b.db.Exec(`DELETE FROM kv_store WHERE bucket = ?`, b.name); err != nil {
		return fmt.Errorf("failed to clear bucket: %w", err)
	}
	return nil
}
