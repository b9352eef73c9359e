package kv

import "sync"

// MemoryBucket keeps values in a plain map. Contents vanish on restart, so
// it only suits scratch data that can be rebuilt.
type MemoryBucket struct {
	mu     sync.RWMutex
	name   string
	values map[string]string
}

// NewMemoryBucket creates a new in-memory bucket.
func NewMemoryBucket(name string) *MemoryBucket {
	return &MemoryBucket{name: name, values: make(map[string]string)}
}

// Name returns the bucket name.
func (b *MemoryBucket) Name() string { return b.name }

// Set saves a value with the given key.
func (b *MemoryBucket) Set(key, value string) error {
	b.mu.Lock()
	b.values[key] = value
	b.mu.Unlock()
	return nil
}

// Get retrieves a value by key.
func (b *MemoryBucket) Get(key string) (string, bool, error) {
	b.mu.RLock()
	value, ok := b.values[key]
	b.mu.RUnlock()
	return value, ok, nil
}

// Delete removes a key, reporting whether it existed.
func (b *MemoryBucket) Delete(key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.values[key]; !ok {
		return false, nil
	}
	delete(b.values, key)
	return true, nil
}

// Keys returns all keys in the bucket.
func (b *MemoryBucket) Keys() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	keys := make([]string, 0, len(b.values))
	for key := range b.values {
		keys = append(keys, key)
	}
	return keys, nil
}

// Clear drops every key.
func (b *MemoryBucket) Clear() error {
	b.mu.Lock()
	b.values = make(map[string]string)
	b.mu.Unlock()
	return nil
}
