// Package scheduler drives the per-entity day/night state machine: it
// computes the next sunrise and sunset from the effective settings, arms
// timers for them, and dispatches the configured actions when they fire.
package scheduler

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/astro"
	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

const (
	// recomputeInterval is the base period of the standing recompute
	// timer; a random jitter keeps entities from recomputing in lockstep.
	recomputeInterval  = time.Hour
	recomputeJitterMax = time.Minute

	// guardInterval backstops the schedule: if every other timer is lost
	// (clock jumps, suspend/resume), the guard still forces a reschedule.
	guardInterval = 6 * time.Hour

	// settleDelay follows a solar event so the schedule rolls over to the
	// next day once the fired instant is safely in the past.
	settleDelay = time.Minute

	// maxTimerHorizon caps a single timer's reach. Longer waits converge
	// through the hourly recompute instead of trusting one long timer.
	maxTimerHorizon = 24 * time.Hour
)

var (
	// ErrMissingEntityID means a switcher was requested without a stable
	// entity identity to key its storage and timers on.
	ErrMissingEntityID = errors.New("entity id is required")

	// ErrClosed means the switcher has been detached.
	ErrClosed = errors.New("switcher is closed")
)

// Invoker delivers the configured action for a phase. The executor
// implements it; tests substitute a recorder.
type Invoker interface {
	Invoke(ctx context.Context, entityID string, eff settings.Effective, phase settings.Phase) error
}

// Options overrides the switcher's clock and jitter sources, for tests.
type Options struct {
	Now    func() time.Time
	Jitter func(max time.Duration) time.Duration
}

// Switcher owns the scheduling state of one entity. All mutations happen
// under one mutex; timer callbacks carry the generation they were armed in
// and become no-ops once a newer reschedule has run.
type Switcher struct {
	id   string
	name string

	global  *settings.Store
	entity  *settings.Store
	astro   *astro.Cache
	invoker Invoker

	now    func() time.Time
	jitter func(max time.Duration) time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	timers       *timerSet
	gen          uint64
	state        State
	closed       bool
	nextSunrise  time.Time
	nextSunset   time.Time
	previewPlain string
}

// Status is a point-in-time snapshot of a switcher for reporting surfaces.
type Status struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	State       State      `json:"state"`
	Preview     string     `json:"preview,omitempty"`
	NextSunrise *time.Time `json:"nextSunrise,omitempty"`
	NextSunset  *time.Time `json:"nextSunset,omitempty"`
}

// New creates a switcher for one entity. No timers are armed until the
// first Reschedule call.
func New(id, name string, global, entity *settings.Store, cache *astro.Cache, invoker Invoker, opts *Options) (*Switcher, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingEntityID
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Switcher{
		id:      id,
		name:    name,
		global:  global,
		entity:  entity,
		astro:   cache,
		invoker: invoker,
		now:     time.Now,
		jitter: func(max time.Duration) time.Duration {
			return rand.N(max)
		},
		ctx:    ctx,
		cancel: cancel,
		timers: newTimerSet(),
		state:  StateDisabled,
	}
	if opts != nil {
		if opts.Now != nil {
			s.now = opts.Now
		}
		if opts.Jitter != nil {
			s.jitter = opts.Jitter
		}
	}
	return s, nil
}

// ID returns the entity id.
func (s *Switcher) ID() string { return s.id }

// Name returns the display name.
func (s *Switcher) Name() string { return s.name }

// Settings returns the entity's own settings store.
func (s *Switcher) Settings() *settings.Store { return s.entity }

// Status returns a snapshot of the current scheduling state.
func (s *Switcher) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		ID:      s.id,
		Name:    s.name,
		State:   s.state,
		Preview: s.previewPlain,
	}
	if !s.nextSunrise.IsZero() {
		t := s.nextSunrise
		status.NextSunrise = &t
	}
	if !s.nextSunset.IsZero() {
		t := s.nextSunset
		status.NextSunset = &t
	}
	return status
}

// Reschedule tears down the current timers and rebuilds the schedule from
// the effective settings. Safe to call from any goroutine.
func (s *Switcher) Reschedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.reschedule()
}

// Disable cancels every timer, including the standing recompute, and
// persists the disabled preview. The switcher stays attached and comes
// back through Reschedule.
func (s *Switcher) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.gen++
	s.timers.cancelAll()
	s.state = StateDisabled
	s.nextSunrise, s.nextSunset = time.Time{}, time.Time{}
	s.persistPreview(Preview{State: StateDisabled, Now: s.now()})
	log.Info().Str("entity", s.id).Msg("Switcher disabled")
}

// SwitchNow dispatches the action for phase immediately, outside the
// schedule. It works whether or not the entity is enabled, so actions can
// be tried out before an entity goes live.
func (s *Switcher) SwitchNow(ctx context.Context, phase settings.Phase) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	eff := settings.Resolve(s.global, s.entity)
	s.mu.Unlock()

	return s.dispatch(ctx, eff, phase, "manual")
}

// RefreshPreview recomputes and persists the preview from the current
// settings without touching timers or dispatching anything.
func (s *Switcher) RefreshPreview() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	eff := settings.Resolve(s.global, s.entity)
	if !eff.Enabled {
		s.persistPreview(Preview{State: StateDisabled, Now: s.now()})
		return
	}
	s.persistPreview(buildPreview(eff, s.compute(eff)))
}

// Close cancels all timers and aborts in-flight dispatches. A closed
// switcher cannot be reused.
func (s *Switcher) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.closed = true
	s.gen++
	s.timers.cancelAll()
	s.cancel()
	log.Debug().Str("entity", s.id).Msg("Switcher closed")
}

// reschedule is the single scheduling path. Callers hold s.mu.
func (s *Switcher) reschedule() {
	s.gen++
	gen := s.gen
	s.timers.cancelAll()

	// The recompute timer is armed unconditionally, even for disabled or
	// broken configs, so the switcher periodically re-reads the world.
	s.timers.arm(TimerRecompute, recomputeInterval+s.jitter(recomputeJitterMax), func() {
		s.onMaintenance(gen, TimerRecompute)
	})

	eff := settings.Resolve(s.global, s.entity)

	if !eff.Enabled {
		s.state = StateDisabled
		s.nextSunrise, s.nextSunset = time.Time{}, time.Time{}
		s.persistPreview(Preview{State: StateDisabled, Now: s.now()})
		log.Debug().Str("entity", s.id).Msg("Switcher not enabled, keeping recompute only")
		return
	}

	s.timers.arm(TimerGuard, guardInterval, func() {
		s.onMaintenance(gen, TimerGuard)
	})

	c := s.compute(eff)
	if c.reason != "" {
		s.state = StateError
		s.nextSunrise, s.nextSunset = time.Time{}, time.Time{}
		s.persistPreview(buildPreview(eff, c))
		log.Warn().Str("entity", s.id).Str("reason", c.reason).Msg("Cannot schedule solar events")
		return
	}

	s.state = StateScheduled
	s.nextSunrise = c.nextSunrise
	s.nextSunset = c.nextSunset

	s.armEvent(gen, TimerSunrise, c.nextSunrise, c.now, settings.PhaseDay)
	s.armEvent(gen, TimerSunset, c.nextSunset, c.now, settings.PhaseNight)

	s.persistPreview(buildPreview(eff, c))

	log.Info().
		Str("entity", s.id).
		Time("next_sunrise", c.nextSunrise).
		Time("next_sunset", c.nextSunset).
		Msg("Scheduled solar events")

	if eff.SyncOnStartup {
		s.maybeSync(eff, c)
	}
}

// computed is one evaluation of the solar schedule.
type computed struct {
	// reason is non-empty when a schedule cannot be built.
	reason string

	now         time.Time
	adjSunrise  time.Time
	adjSunset   time.Time
	nextSunrise time.Time
	nextSunset  time.Time
}

// compute evaluates today's adjusted events and the next occurrence of
// each, all in the effective timezone.
func (s *Switcher) compute(eff settings.Effective) computed {
	tz := LoadLocation(eff.Timezone)
	now := s.now().In(tz)

	if !eff.HasLocation() {
		return computed{reason: "location is not configured", now: now}
	}
	lat, lon := *eff.Latitude, *eff.Longitude

	raw := s.astro.SunTimes(now, lat, lon)
	if !raw.HasBoth() {
		return computed{reason: "sun does not rise and set today at this location", now: now}
	}

	sunriseOffset := time.Duration(eff.SunriseOffsetMinutes) * time.Minute
	sunsetOffset := time.Duration(eff.SunsetOffsetMinutes) * time.Minute

	c := computed{
		now:        now,
		adjSunrise: raw.Sunrise.Add(sunriseOffset),
		adjSunset:  raw.Sunset.Add(sunsetOffset),
	}
	c.nextSunrise = s.nextOccurrence(now, c.adjSunrise, lat, lon, sunriseOffset, true)
	c.nextSunset = s.nextOccurrence(now, c.adjSunset, lat, lon, sunsetOffset, false)
	return c
}

// nextOccurrence picks when an event fires next: today's adjusted instant
// if still ahead, otherwise tomorrow's. When tomorrow lacks the event
// (polar edge), today's past instant is kept so the schedule stays defined;
// the recompute cycle revisits it within the hour.
func (s *Switcher) nextOccurrence(now, adjusted time.Time, lat, lon float64, offset time.Duration, rising bool) time.Time {
	if adjusted.After(now) {
		return adjusted
	}

	tomorrow := s.astro.SunTimes(now.AddDate(0, 0, 1), lat, lon)
	t := tomorrow.Sunset
	if rising {
		t = tomorrow.Sunrise
	}
	if t.IsZero() {
		return adjusted
	}
	return t.Add(offset)
}

// armEvent arms the timer for one solar event. A delay beyond the horizon
// arms a reschedule instead of the action; repeated recomputes then walk
// the timer onto the true instant.
func (s *Switcher) armEvent(gen uint64, kind TimerKind, at, now time.Time, phase settings.Phase) {
	delay := at.Sub(now)
	if delay < 0 {
		delay = 0
	}
	if delay > maxTimerHorizon {
		s.timers.arm(kind, maxTimerHorizon, func() { s.onMaintenance(gen, kind) })
		return
	}
	s.timers.arm(kind, delay, func() { s.onEvent(gen, kind, phase) })
}

// onEvent handles a fired sunrise/sunset timer: dispatch the action, then
// arm the settle timer so the schedule rolls over to the next day.
func (s *Switcher) onEvent(gen uint64, kind TimerKind, phase settings.Phase) {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return
	}
	eff := settings.Resolve(s.global, s.entity)
	ctx := s.ctx
	s.mu.Unlock()

	log.Info().
		Str("entity", s.id).
		Str("timer", kind.String()).
		Str("phase", string(phase)).
		Msg("Solar event reached")

	// Dispatch outside the lock; retries can take a while.
	s.dispatch(ctx, eff, phase, kind.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}
	s.timers.arm(TimerSettle, settleDelay, func() { s.onMaintenance(gen, TimerSettle) })
}

// onMaintenance handles recompute, guard, settle and horizon-clamped
// timers. They all funnel into a reschedule; recompute additionally drops
// the memoized solar times so date rollovers and DST shifts can't serve
// stale instants.
func (s *Switcher) onMaintenance(gen uint64, kind TimerKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}

	if kind == TimerRecompute {
		s.astro.Purge()
	}
	log.Debug().Str("entity", s.id).Str("timer", kind.String()).Msg("Rescheduling")
	s.reschedule()
}

// maybeSync dispatches the phase the clock says the entity should be in
// when the last delivered phase disagrees, e.g. after a restart that
// missed an event. Runs asynchronously so reschedule never blocks on HTTP.
func (s *Switcher) maybeSync(eff settings.Effective, c computed) {
	expected := settings.PhaseNight
	if !c.now.Before(c.adjSunrise) && c.now.Before(c.adjSunset) {
		expected = settings.PhaseDay
	}

	last, _ := s.entity.Str(settings.KeyLastPhase)
	if last == string(expected) {
		return
	}

	log.Info().
		Str("entity", s.id).
		Str("phase", string(expected)).
		Str("last_phase", last).
		Msg("Syncing phase with the clock")
	go s.dispatch(s.ctx, eff, expected, "sync")
}

// dispatch invokes the action for phase and records it as the last
// delivered phase on success.
func (s *Switcher) dispatch(ctx context.Context, eff settings.Effective, phase settings.Phase, trigger string) error {
	if err := s.invoker.Invoke(ctx, s.id, eff, phase); err != nil {
		log.Error().
			Err(err).
			Str("entity", s.id).
			Str("phase", string(phase)).
			Str("trigger", trigger).
			Msg("Phase switch failed")
		return err
	}

	if err := s.entity.SetStr(settings.KeyLastPhase, string(phase)); err != nil {
		log.Warn().Err(err).Str("entity", s.id).Msg("Failed to persist last phase")
	}
	log.Info().
		Str("entity", s.id).
		Str("phase", string(phase)).
		Str("trigger", trigger).
		Msg("Phase switched")
	return nil
}

// persistPreview stores both preview renderings. Callers hold s.mu.
func (s *Switcher) persistPreview(p Preview) {
	plain := p.Plain()
	if err := s.entity.SetStr(settings.KeyPreviewPlain, plain); err != nil {
		log.Warn().Err(err).Str("entity", s.id).Msg("Failed to persist preview")
	}
	if err := s.entity.SetStr(settings.KeyPreviewRich, p.Rich()); err != nil {
		log.Warn().Err(err).Str("entity", s.id).Msg("Failed to persist rich preview")
	}
	s.previewPlain = plain
}

// buildPreview projects one computation into its preview value.
func buildPreview(eff settings.Effective, c computed) Preview {
	p := Preview{
		Now:       c.now,
		Use24Hour: eff.Use24HourTime,
	}
	if c.reason != "" {
		p.State = StateError
		p.Reason = c.reason
		return p
	}

	p.State = StateScheduled
	p.NextSunrise = c.nextSunrise
	p.NextSunset = c.nextSunset
	p.Latitude = eff.Latitude
	p.Longitude = eff.Longitude
	p.Timezone = eff.Timezone
	p.SunriseOffsetMinutes = eff.SunriseOffsetMinutes
	p.SunsetOffsetMinutes = eff.SunsetOffsetMinutes
	p.LocationSource = sourceName(eff.LocationFromEntity)
	p.OffsetsSource = sourceName(eff.OffsetsFromEntity)
	return p
}

func sourceName(fromEntity bool) string {
	if fromEntity {
		return "entity"
	}
	return "global"
}
