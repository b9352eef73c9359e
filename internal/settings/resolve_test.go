package settings

import (
	"testing"
	"time"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/kv"
)

func newTestStores() (*Store, *Store) {
	return NewStore(kv.NewMemoryBucket("global")), NewStore(kv.NewMemoryBucket("entity:test"))
}

func set(t *testing.T, s *Store, pairs map[string]string) {
	t.Helper()
	for k, v := range pairs {
		if err := s.SetStr(k, v); err != nil {
			t.Fatalf("SetStr(%q) error = %v", k, err)
		}
	}
}

func TestResolveDefaults(t *testing.T) {
	global, entity := newTestStores()
	eff := Resolve(global, entity)

	if eff.Latitude != nil || eff.Longitude != nil {
		t.Errorf("coordinates = (%v, %v), want unset", eff.Latitude, eff.Longitude)
	}
	if eff.HasLocation() {
		t.Error("HasLocation() = true, want false")
	}
	if eff.SunriseOffsetMinutes != 0 || eff.SunsetOffsetMinutes != 0 {
		t.Errorf("offsets = (%d, %d), want (0, 0)", eff.SunriseOffsetMinutes, eff.SunsetOffsetMinutes)
	}
	if eff.RetryCount != 3 {
		t.Errorf("RetryCount = %d, want 3", eff.RetryCount)
	}
	if eff.RetryBaseDelay != time.Second {
		t.Errorf("RetryBaseDelay = %v, want 1s", eff.RetryBaseDelay)
	}
	if eff.Enabled || eff.LogResponses || eff.Use24HourTime || eff.SyncOnStartup {
		t.Error("boolean settings should default to false")
	}
	if eff.Auth.Type != AuthNone {
		t.Errorf("Auth.Type = %q, want none", eff.Auth.Type)
	}
}

func TestResolveGlobalWinsWithoutOverride(t *testing.T) {
	global, entity := newTestStores()
	set(t, global, map[string]string{
		KeyLatitude:  "51.507351",
		KeyLongitude: "-0.127758",
		KeyTimezone:  "Europe/London",
	})
	// Stale entity values must be ignored while the override flag is off.
	set(t, entity, map[string]string{
		KeyLatitude:  "48.856614",
		KeyLongitude: "2.352222",
		KeyTimezone:  "Europe/Paris",
	})

	eff := Resolve(global, entity)
	if eff.Latitude == nil || *eff.Latitude != 51.507351 {
		t.Errorf("Latitude = %v, want 51.507351", eff.Latitude)
	}
	if eff.Longitude == nil || *eff.Longitude != -0.127758 {
		t.Errorf("Longitude = %v, want -0.127758", eff.Longitude)
	}
	if eff.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, want Europe/London", eff.Timezone)
	}
	if eff.LocationFromEntity {
		t.Error("LocationFromEntity = true, want false")
	}
}

func TestResolveOverrideIsWholesale(t *testing.T) {
	global, entity := newTestStores()
	set(t, global, map[string]string{
		KeyLatitude:  "51.507351",
		KeyLongitude: "-0.127758",
		KeyTimezone:  "Europe/London",
	})
	// Override on, but the entity only sets latitude: the other fields of
	// the category resolve from the entity layer too, i.e. to unset.
	set(t, entity, map[string]string{
		KeyOverrideLocation: "true",
		KeyLatitude:         "48.856614",
	})

	eff := Resolve(global, entity)
	if eff.Latitude == nil || *eff.Latitude != 48.856614 {
		t.Errorf("Latitude = %v, want 48.856614", eff.Latitude)
	}
	if eff.Longitude != nil {
		t.Errorf("Longitude = %v, want unset", *eff.Longitude)
	}
	if eff.Timezone != "" {
		t.Errorf("Timezone = %q, want empty", eff.Timezone)
	}
	if !eff.LocationFromEntity {
		t.Error("LocationFromEntity = false, want true")
	}
}

func TestResolveCategoriesAreIndependent(t *testing.T) {
	global, entity := newTestStores()
	set(t, global, map[string]string{
		KeyLatitude:             "51.507351",
		KeyLongitude:            "-0.127758",
		KeySunriseOffsetMinutes: "10",
		KeyRetryCount:           "5",
	})
	set(t, entity, map[string]string{
		KeyOverrideOffsets:      "true",
		KeySunriseOffsetMinutes: "30",
		KeySunsetOffsetMinutes:  "-15",
	})

	eff := Resolve(global, entity)
	if eff.Latitude == nil || *eff.Latitude != 51.507351 {
		t.Errorf("Latitude = %v, want global 51.507351", eff.Latitude)
	}
	if eff.SunriseOffsetMinutes != 30 || eff.SunsetOffsetMinutes != -15 {
		t.Errorf("offsets = (%d, %d), want (30, -15)", eff.SunriseOffsetMinutes, eff.SunsetOffsetMinutes)
	}
	if eff.RetryCount != 5 {
		t.Errorf("RetryCount = %d, want global 5", eff.RetryCount)
	}
	if !eff.OffsetsFromEntity || eff.LocationFromEntity || eff.ReliabilityFromEntity {
		t.Error("only the offsets category should come from the entity")
	}
}

func TestResolveClamps(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		raw   string
		check func(t *testing.T, eff Effective)
	}{
		{
			name: "latitude above range", key: KeyLatitude, raw: "95",
			check: func(t *testing.T, eff Effective) {
				if eff.Latitude == nil || *eff.Latitude != 90 {
					t.Errorf("Latitude = %v, want 90", eff.Latitude)
				}
			},
		},
		{
			name: "latitude below range", key: KeyLatitude, raw: "-100.5",
			check: func(t *testing.T, eff Effective) {
				if eff.Latitude == nil || *eff.Latitude != -90 {
					t.Errorf("Latitude = %v, want -90", eff.Latitude)
				}
			},
		},
		{
			name: "longitude clamped", key: KeyLongitude, raw: "200",
			check: func(t *testing.T, eff Effective) {
				if eff.Longitude == nil || *eff.Longitude != 180 {
					t.Errorf("Longitude = %v, want 180", eff.Longitude)
				}
			},
		},
		{
			name: "sunrise offset clamped high", key: KeySunriseOffsetMinutes, raw: "2000",
			check: func(t *testing.T, eff Effective) {
				if eff.SunriseOffsetMinutes != 720 {
					t.Errorf("SunriseOffsetMinutes = %d, want 720", eff.SunriseOffsetMinutes)
				}
			},
		},
		{
			name: "sunset offset clamped low", key: KeySunsetOffsetMinutes, raw: "-100000",
			check: func(t *testing.T, eff Effective) {
				if eff.SunsetOffsetMinutes != -720 {
					t.Errorf("SunsetOffsetMinutes = %d, want -720", eff.SunsetOffsetMinutes)
				}
			},
		},
		{
			name: "retry count floor", key: KeyRetryCount, raw: "0",
			check: func(t *testing.T, eff Effective) {
				if eff.RetryCount != 1 {
					t.Errorf("RetryCount = %d, want 1", eff.RetryCount)
				}
			},
		},
		{
			name: "retry delay floor", key: KeyRetryBaseDelayMs, raw: "-50",
			check: func(t *testing.T, eff Effective) {
				if eff.RetryBaseDelay != 0 {
					t.Errorf("RetryBaseDelay = %v, want 0", eff.RetryBaseDelay)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			global, entity := newTestStores()
			set(t, global, map[string]string{tt.key: tt.raw})
			tt.check(t, Resolve(global, entity))
		})
	}
}

func TestResolveInvalidCoordinatesAreUnset(t *testing.T) {
	for _, raw := range []string{"", "abc", "NaN", "1e999"} {
		t.Run("raw="+raw, func(t *testing.T) {
			global, entity := newTestStores()
			set(t, global, map[string]string{KeyLatitude: raw, KeyLongitude: "0"})
			eff := Resolve(global, entity)
			if eff.Latitude != nil {
				t.Errorf("Latitude = %v, want unset", *eff.Latitude)
			}
			if eff.HasLocation() {
				t.Error("HasLocation() = true, want false")
			}
		})
	}
}

func TestResolveEntityOnlyKeys(t *testing.T) {
	global, entity := newTestStores()
	// Entity-only keys written to the global bucket have no effect.
	set(t, global, map[string]string{
		KeyEnabled:             "true",
		ActionKeyURL(PhaseDay): "http://global.example/on",
		KeyAuthType:            "digest",
	})
	set(t, entity, map[string]string{
		KeyEnabled:                   "true",
		ActionKeyURL(PhaseDay):       "http://cam.local/day",
		ActionKeyMethod(PhaseDay):    "post",
		ActionKeyBody(PhaseDay):      `{"mode":"color"}`,
		ActionKeyURL(PhaseNight):     "http://cam.local/night",
		ActionKeyHeaders(PhaseNight): `{"X-Token":"abc"}`,
		KeyAuthType:                  "basic",
		KeyAuthUsername:              "admin",
		KeyAuthPassword:              "secret",
	})

	eff := Resolve(global, entity)
	if !eff.Enabled {
		t.Error("Enabled = false, want true")
	}
	if eff.Day.URL != "http://cam.local/day" {
		t.Errorf("Day.URL = %q, want entity value", eff.Day.URL)
	}
	if eff.Day.Method != "post" || eff.Day.Body != `{"mode":"color"}` {
		t.Errorf("Day action = %+v, want raw entity values", eff.Day)
	}
	if eff.Night.ExtraHeaders != `{"X-Token":"abc"}` {
		t.Errorf("Night.ExtraHeaders = %q", eff.Night.ExtraHeaders)
	}
	if eff.Auth != (Auth{Type: AuthBasic, Username: "admin", Password: "secret"}) {
		t.Errorf("Auth = %+v", eff.Auth)
	}
	if got := eff.ActionFor(PhaseNight).URL; got != "http://cam.local/night" {
		t.Errorf("ActionFor(night).URL = %q", got)
	}
}

func TestParsePhase(t *testing.T) {
	tests := []struct {
		raw    string
		want   Phase
		wantOK bool
	}{
		{raw: "day", want: PhaseDay, wantOK: true},
		{raw: "Night", want: PhaseNight, wantOK: true},
		{raw: " DAY ", want: PhaseDay, wantOK: true},
		{raw: "dusk", wantOK: false},
		{raw: "", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := ParsePhase(tt.raw)
		if ok != tt.wantOK || (ok && got != tt.want) {
			t.Errorf("ParsePhase(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseAuthType(t *testing.T) {
	tests := []struct {
		raw  string
		want AuthType
	}{
		{raw: "digest", want: AuthDigest},
		{raw: "Basic", want: AuthBasic},
		{raw: "none", want: AuthNone},
		{raw: "", want: AuthNone},
		{raw: "oauth", want: AuthNone},
	}
	for _, tt := range tests {
		if got := ParseAuthType(tt.raw); got != tt.want {
			t.Errorf("ParseAuthType(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
