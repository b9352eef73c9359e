package settings

import (
	"strings"
	"time"
)

// Phase is one of the two switching targets.
type Phase string

const (
	PhaseDay   Phase = "day"
	PhaseNight Phase = "night"
)

// ParsePhase maps a raw string onto a Phase.
func ParsePhase(raw string) (Phase, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "day":
		return PhaseDay, true
	case "night":
		return PhaseNight, true
	}
	return "", false
}

// AuthType selects the HTTP authentication strategy for action requests.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthDigest AuthType = "digest"
)

// ParseAuthType maps a raw string onto an AuthType, defaulting to none.
func ParseAuthType(raw string) AuthType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "basic":
		return AuthBasic
	case "digest":
		return AuthDigest
	}
	return AuthNone
}

// Auth holds the credentials for action requests.
type Auth struct {
	Type     AuthType
	Username string
	Password string
}

// Action describes the HTTP request configured for one phase.
type Action struct {
	URL         string
	Method      string
	ContentType string
	// ExtraHeaders is the raw JSON object text from settings, parsed and
	// merged at dispatch time.
	ExtraHeaders string
	Body         string
}

// Effective is the merged configuration a switcher operates on. It is
// recomputed from the stores on every reschedule and every dispatch, never
// cached.
type Effective struct {
	// Latitude and Longitude are nil when unset or unparseable. Present
	// values are clamped to [-90,90] and [-180,180].
	Latitude  *float64
	Longitude *float64
	Timezone  string

	Use24HourTime bool
	SyncOnStartup bool

	// Offsets are clamped to [-720,720] minutes.
	SunriseOffsetMinutes int
	SunsetOffsetMinutes  int

	RetryCount     int
	RetryBaseDelay time.Duration
	LogResponses   bool

	Enabled bool
	Auth    Auth
	Day     Action
	Night   Action

	// Provenance of the overridable categories, for preview reporting.
	LocationFromEntity    bool
	OffsetsFromEntity     bool
	ReliabilityFromEntity bool
}

// ActionFor returns the action block for a phase.
func (e *Effective) ActionFor(p Phase) Action {
	if p == PhaseNight {
		return e.Night
	}
	return e.Day
}

// HasLocation reports whether both coordinates are configured.
func (e *Effective) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}
