package kv

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Manager hands out buckets by name and remembers the handles, so repeated
// lookups share one instance. Persistent buckets live in SQLite; the rest
// are process-local memory.
type Manager struct {
	db *sql.DB

	mu      sync.RWMutex
	buckets map[string]Bucket
}

// NewManager creates a new KV manager.
func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db, buckets: make(map[string]Bucket)}
}

// Bucket returns the bucket with the given name, creating it on first use.
func (m *Manager) Bucket(name string, persistent bool) Bucket {
	m.mu.Lock()
	defer m.mu.Unlock()

	if bucket, ok := m.buckets[name]; ok {
		return bucket
	}

	var bucket Bucket
	if persistent {
		bucket = NewSQLiteBucket(m.db, name)
	} else {
		bucket = NewMemoryBucket(name)
	}
	m.buckets[name] = bucket

	log.Debug().Str("bucket", name).Bool("persistent", persistent).Msg("Created KV bucket")
	return bucket
}

// Delete drops the bucket handle and its persisted rows. The returned bool
// reports whether any rows existed.
func (m *Manager) Delete(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.buckets, name)

	result, err := m.db.Exec(`DELETE FROM kv_store WHERE bucket = ?`, name)
	if err != nil {
		return false, fmt.Errorf("failed to delete bucket: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected > 0 {
		log.Debug().Str("bucket", name).Int64("keys_deleted", affected).Msg("Deleted KV bucket")
	}
	return affected > 0, nil
}

// List returns every known bucket name: the persisted ones from the table
// plus any live in-memory buckets.
func (m *Manager) List() ([]string, error) {
	seen := make(map[string]bool)

	rows, err := m.db.Query(`SELECT DISTINCT bucket FROM kv_store`)
	if err != nil {
		return nil, fmt.Errorf("failed to list buckets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan bucket name: %w", err)
		}
		seen[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	for name := range m.buckets {
		seen[name] = true
	}
	m.mu.RUnlock()

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	return names, nil
}
