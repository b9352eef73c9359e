package registry

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period applied to bursts of global settings
// changes before the entities are rescheduled.
const DefaultDebounce = 300 * time.Millisecond

// debouncer fires its callback after a quiet period: each trigger resets
// the timer, so a burst of triggers collapses into one invocation.
type debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	timer   *time.Timer
	fn      func()
	stopped bool
}

func newDebouncer(quiet time.Duration, fn func()) *debouncer {
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	return &debouncer{quiet: quiet, fn: fn}
}

// Trigger arms (or re-arms) the quiet timer.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	stopped := d.stopped
	d.mu.Unlock()

	if !stopped {
		d.fn()
	}
}

// Stop cancels any pending callback. A stopped debouncer stays stopped.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
