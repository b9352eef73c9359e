package settings

import (
	"math"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/kv"
)

// Store wraps a kv bucket with typed accessors. Read failures and
// unparseable values are logged and reported as unset, so a corrupt entry
// degrades to the default instead of stalling the scheduler.
type Store struct {
	bucket kv.Bucket
}

// NewStore creates a store over the given bucket.
func NewStore(bucket kv.Bucket) *Store {
	return &Store{bucket: bucket}
}

// BucketName returns the name of the underlying bucket.
func (s *Store) BucketName() string {
	return s.bucket.Name()
}

// Str returns the raw string value for a key.
func (s *Store) Str(key string) (string, bool) {
	value, ok, err := s.bucket.Get(key)
	if err != nil {
		log.Warn().Err(err).Str("bucket", s.bucket.Name()).Str("key", key).Msg("Failed to read setting")
		return "", false
	}
	return value, ok
}

// Bool returns a boolean value. Only the exact strings "true" and "false"
// count as set; anything else reads as unset.
func (s *Store) Bool(key string) (bool, bool) {
	raw, ok := s.Str(key)
	if !ok {
		return false, false
	}
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	if raw != "" {
		log.Warn().Str("bucket", s.bucket.Name()).Str("key", key).Str("value", raw).Msg("Setting is not a boolean")
	}
	return false, false
}

// Float returns a finite float value. Empty, unparseable, NaN and infinite
// inputs count as unset.
func (s *Store) Float(key string) (float64, bool) {
	raw, ok := s.Str(key)
	if !ok || raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		log.Warn().Str("bucket", s.bucket.Name()).Str("key", key).Str("value", raw).Msg("Setting is not a finite number")
		return 0, false
	}
	return value, true
}

// Int returns an integer value. Empty and unparseable inputs count as unset.
func (s *Store) Int(key string) (int, bool) {
	raw, ok := s.Str(key)
	if !ok || raw == "" {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Str("bucket", s.bucket.Name()).Str("key", key).Str("value", raw).Msg("Setting is not an integer")
		return 0, false
	}
	return value, true
}

// SetStr stores a raw string value.
func (s *Store) SetStr(key, value string) error {
	return s.bucket.Set(key, value)
}

// SetBool stores a boolean as "true"/"false".
func (s *Store) SetBool(key string, value bool) error {
	return s.bucket.Set(key, strconv.FormatBool(value))
}

// SetFloat stores a float as decimal text.
func (s *Store) SetFloat(key string, value float64) error {
	return s.bucket.Set(key, strconv.FormatFloat(value, 'f', -1, 64))
}

// SetInt stores an integer as decimal text.
func (s *Store) SetInt(key string, value int) error {
	return s.bucket.Set(key, strconv.Itoa(value))
}

// Delete removes a key.
func (s *Store) Delete(key string) error {
	_, err := s.bucket.Delete(key)
	return err
}

// All returns every key-value pair in the store.
func (s *Store) All() (map[string]string, error) {
	keys, err := s.bucket.Keys()
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		value, ok, err := s.bucket.Get(key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[key] = value
		}
	}
	return values, nil
}
