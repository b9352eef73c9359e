package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// State is the scheduling state of a switcher.
type State string

const (
	StateDisabled  State = "disabled"
	StateScheduled State = "scheduled"
	StateError     State = "error"
)

// Preview is the operator-facing projection of one entity's computed
// schedule. It is a pure value: building and rendering it never touches
// timers or the network.
type Preview struct {
	State  State
	Reason string

	NextSunrise time.Time
	NextSunset  time.Time

	Now       time.Time
	Use24Hour bool

	Latitude  *float64
	Longitude *float64
	Timezone  string

	SunriseOffsetMinutes int
	SunsetOffsetMinutes  int

	LocationSource string
	OffsetsSource  string
}

// Plain renders the single-line summary shown next to the entity.
func (p Preview) Plain() string {
	switch p.State {
	case StateDisabled:
		return "Disabled"
	case StateError:
		return "Schedule unavailable: " + p.Reason
	}
	return fmt.Sprintf("Sunrise → Day: %s | Sunset → Night: %s",
		FormatInstant(p.NextSunrise, p.Now, p.Use24Hour),
		FormatInstant(p.NextSunset, p.Now, p.Use24Hour))
}

type richPreview struct {
	State                string   `json:"state"`
	Reason               string   `json:"reason,omitempty"`
	NextPhase            string   `json:"nextPhase,omitempty"`
	NextEvent            string   `json:"nextEvent,omitempty"`
	NextSunrise          string   `json:"nextSunrise,omitempty"`
	NextSunset           string   `json:"nextSunset,omitempty"`
	Timezone             string   `json:"timezone,omitempty"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	SunriseOffsetMinutes int      `json:"sunriseOffsetMinutes"`
	SunsetOffsetMinutes  int      `json:"sunsetOffsetMinutes"`
	LocationSource       string   `json:"locationSource,omitempty"`
	OffsetsSource        string   `json:"offsetsSource,omitempty"`
	GeneratedAt          string   `json:"generatedAt"`
}

// Rich renders the machine-readable preview document.
func (p Preview) Rich() string {
	doc := richPreview{
		State:                string(p.State),
		Reason:               p.Reason,
		SunriseOffsetMinutes: p.SunriseOffsetMinutes,
		SunsetOffsetMinutes:  p.SunsetOffsetMinutes,
		GeneratedAt:          p.Now.Format(time.RFC3339),
	}
	if p.State == StateScheduled {
		doc.NextSunrise = p.NextSunrise.Format(time.RFC3339)
		doc.NextSunset = p.NextSunset.Format(time.RFC3339)
		doc.Timezone = p.Timezone
		doc.Latitude = p.Latitude
		doc.Longitude = p.Longitude
		doc.LocationSource = p.LocationSource
		doc.OffsetsSource = p.OffsetsSource

		next, phase := p.NextSunrise, "day"
		if p.NextSunset.Before(p.NextSunrise) {
			next, phase = p.NextSunset, "night"
		}
		doc.NextPhase = phase
		doc.NextEvent = next.Format(time.RFC3339)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return `{"state":"error","reason":"preview serialization failed"}`
	}
	return string(data)
}

// FormatInstant renders an event instant for humans: bare clock time when
// the event falls on the same calendar day as now, weekday-prefixed
// otherwise.
func FormatInstant(t, now time.Time, use24h bool) string {
	layout := "3:04 PM"
	if use24h {
		layout = "15:04"
	}

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format(layout)
	}
	return t.Format("Mon " + layout)
}

// LoadLocation resolves a timezone id, falling back to the system zone when
// the id is empty or unknown.
func LoadLocation(id string) *time.Location {
	if id == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		log.Warn().Err(err).Str("timezone", id).Msg("Unknown timezone, using system local")
		return time.Local
	}
	return loc
}
