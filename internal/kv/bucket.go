// Package kv provides string key-value storage with SQLite persistence and an
// in-memory option. All values are strings: booleans are stored as "true" or
// "false" and numbers as decimal text, so buckets round-trip settings without
// any type metadata.
package kv

// Bucket is the interface for key-value storage operations.
type Bucket interface {
	// Name returns the bucket name.
	Name() string

	// Set saves a value with the given key, overwriting any previous value.
	Set(key, value string) error

	// Get retrieves a value by key.
	// The second return value is false if the key doesn't exist.
	Get(key string) (string, bool, error)

	// Delete removes a key from the bucket.
	// Returns true if the key existed.
	Delete(key string) (bool, error)

	// Keys returns all keys in the bucket.
	Keys() ([]string, error)

	// Clear removes all keys from the bucket.
	Clear() error
}
