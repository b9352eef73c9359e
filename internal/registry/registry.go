// Package registry tracks the attached entities and their switchers, keyed
// by a stable entity id, and fans global settings changes out to all of
// them through a debounced reschedule.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/astro"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/kv"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/scheduler"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

// entityBucketPrefix namespaces per-entity settings buckets, so entity ids
// can never collide with the global bucket.
const entityBucketPrefix = "entity:"

var (
	// ErrEntityExists means an id is already attached.
	ErrEntityExists = errors.New("entity is already attached")

	// ErrEntityNotFound means no switcher is attached under the id.
	ErrEntityNotFound = errors.New("entity is not attached")

	// ErrClosed means the registry has been shut down.
	ErrClosed = errors.New("registry is closed")
)

// Registry owns the set of attached entities. Each entity gets a persisted
// settings bucket and a switcher; all switchers share the global settings
// store, the solar cache and the action invoker.
type Registry struct {
	buckets *kv.Manager
	global  *settings.Store
	cache   *astro.Cache
	invoker scheduler.Invoker

	mu       sync.Mutex
	entities map[string]*scheduler.Switcher
	debounce *debouncer
	closed   bool
}

// New creates an empty registry. A non-positive debounce falls back to
// DefaultDebounce.
func New(buckets *kv.Manager, global *settings.Store, cache *astro.Cache, invoker scheduler.Invoker, debounce time.Duration) *Registry {
	r := &Registry{
		buckets:  buckets,
		global:   global,
		cache:    cache,
		invoker:  invoker,
		entities: make(map[string]*scheduler.Switcher),
	}
	r.debounce = newDebouncer(debounce, r.rescheduleAll)
	return r
}

// Global returns the shared settings store.
func (r *Registry) Global() *settings.Store { return r.global }

// Attach creates a switcher for the entity, backed by a persisted settings
// bucket, and builds its initial schedule. A name given here is persisted;
// an empty name restores whatever name was persisted before.
func (r *Registry) Attach(id, name string) (*scheduler.Switcher, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, scheduler.ErrMissingEntityID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if _, ok := r.entities[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityExists, id)
	}

	store := settings.NewStore(r.buckets.Bucket(entityBucketPrefix+id, true))
	if name != "" {
		if err := store.SetStr(settings.KeyName, name); err != nil {
			return nil, fmt.Errorf("failed to persist entity name: %w", err)
		}
	} else if stored, ok := store.Str(settings.KeyName); ok {
		name = stored
	}

	sw, err := scheduler.New(id, name, r.global, store, r.cache, r.invoker, nil)
	if err != nil {
		return nil, err
	}
	r.entities[id] = sw

	log.Info().Str("entity", id).Str("name", name).Msg("Entity attached")
	sw.Reschedule()
	return sw, nil
}

// AttachPersisted attaches every entity that left a settings bucket behind,
// skipping ids that are already attached.
func (r *Registry) AttachPersisted() error {
	names, err := r.buckets.List()
	if err != nil {
		return fmt.Errorf("failed to list settings buckets: %w", err)
	}
	sort.Strings(names)

	for _, bucket := range names {
		id, ok := strings.CutPrefix(bucket, entityBucketPrefix)
		if !ok || id == "" {
			continue
		}
		if _, err := r.Attach(id, ""); err != nil {
			if errors.Is(err, ErrEntityExists) {
				continue
			}
			return err
		}
	}
	return nil
}

// Detach closes the entity's switcher and forgets it. With purge the
// persisted settings bucket is deleted as well; without it the settings
// survive for a later re-attach.
func (r *Registry) Detach(id string, purge bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sw, ok := r.entities[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntityNotFound, id)
	}

	sw.Close()
	delete(r.entities, id)

	if purge {
		if _, err := r.buckets.Delete(entityBucketPrefix + id); err != nil {
			return fmt.Errorf("failed to purge entity settings: %w", err)
		}
	}

	log.Info().Str("entity", id).Bool("purge", purge).Msg("Entity detached")
	return nil
}

// Get returns the attached switcher for id.
func (r *Registry) Get(id string) (*scheduler.Switcher, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sw, ok := r.entities[id]
	return sw, ok
}

// List returns the attached switchers ordered by entity id.
func (r *Registry) List() []*scheduler.Switcher {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*scheduler.Switcher, 0, len(r.entities))
	for _, sw := range r.entities {
		out = append(out, sw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// NotifyGlobalChange reschedules every attached entity once the burst of
// global settings writes has settled.
func (r *Registry) NotifyGlobalChange() {
	r.debounce.Trigger()
}

// rescheduleAll runs as the debounce callback. The fan-out happens on a
// snapshot so a slow reschedule never blocks attach or detach.
func (r *Registry) rescheduleAll() {
	r.mu.Lock()
	snapshot := make([]*scheduler.Switcher, 0, len(r.entities))
	for _, sw := range r.entities {
		snapshot = append(snapshot, sw)
	}
	r.mu.Unlock()

	log.Debug().Int("entities", len(snapshot)).Msg("Global settings changed, rescheduling entities")
	for _, sw := range snapshot {
		go sw.Reschedule()
	}
}

// Close detaches every entity. Persisted settings are left in place.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	r.debounce.Stop()

	for id, sw := range r.entities {
		sw.Close()
		delete(r.entities, id)
	}
	log.Debug().Msg("Registry closed")
}
