package scheduler

import (
	"sort"
	"sync"
	"time"
)

// TimerKind identifies one of a switcher's armed timers.
type TimerKind int

const (
	TimerSunrise TimerKind = iota
	TimerSunset
	TimerRecompute
	TimerGuard
	TimerSettle
)

func (k TimerKind) String() string {
	switch k {
	case TimerSunrise:
		return "sunrise"
	case TimerSunset:
		return "sunset"
	case TimerRecompute:
		return "recompute"
	case TimerGuard:
		return "guard"
	case TimerSettle:
		return "settle"
	}
	return "unknown"
}

// timerSet holds the active timers for one entity, at most one per kind.
// Arming a kind replaces its previous timer, so a reschedule can never leak
// a duplicate firing path.
type timerSet struct {
	mu     sync.Mutex
	timers map[TimerKind]*time.Timer
}

func newTimerSet() *timerSet {
	return &timerSet{timers: make(map[TimerKind]*time.Timer)}
}

// arm schedules fn after delay, replacing any previous timer of the same kind.
func (ts *timerSet) arm(kind TimerKind, delay time.Duration, fn func()) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.timers[kind]; ok {
		t.Stop()
	}
	ts.timers[kind] = time.AfterFunc(delay, fn)
}

// cancelAll stops and forgets every timer.
func (ts *timerSet) cancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for kind, t := range ts.timers {
		t.Stop()
		delete(ts.timers, kind)
	}
}

// active returns the kinds that currently hold a timer, ordered.
func (ts *timerSet) active() []TimerKind {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	kinds := make([]TimerKind, 0, len(ts.timers))
	for kind := range ts.timers {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
