package scheduler

import (
	"encoding/json"
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func TestPreviewPlain(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	now := time.Date(2024, 6, 21, 6, 0, 0, 0, london)

	tests := []struct {
		name    string
		preview Preview
		want    string
	}{
		{
			name: "scheduled 24h",
			preview: Preview{
				State:       StateScheduled,
				Now:         now,
				Use24Hour:   true,
				NextSunrise: time.Date(2024, 6, 21, 6, 47, 0, 0, london),
				NextSunset:  time.Date(2024, 6, 21, 20, 12, 0, 0, london),
			},
			want: "Sunrise → Day: 06:47 | Sunset → Night: 20:12",
		},
		{
			name: "scheduled 12h",
			preview: Preview{
				State:       StateScheduled,
				Now:         now,
				NextSunrise: time.Date(2024, 6, 21, 6, 47, 0, 0, london),
				NextSunset:  time.Date(2024, 6, 21, 20, 12, 0, 0, london),
			},
			want: "Sunrise → Day: 6:47 AM | Sunset → Night: 8:12 PM",
		},
		{
			name: "next day events carry the weekday",
			preview: Preview{
				State:       StateScheduled,
				Now:         time.Date(2024, 6, 21, 22, 0, 0, 0, london),
				Use24Hour:   true,
				NextSunrise: time.Date(2024, 6, 22, 4, 44, 0, 0, london),
				NextSunset:  time.Date(2024, 6, 22, 21, 21, 0, 0, london),
			},
			want: "Sunrise → Day: Sat 04:44 | Sunset → Night: Sat 21:21",
		},
		{
			name:    "disabled",
			preview: Preview{State: StateDisabled, Now: now},
			want:    "Disabled",
		},
		{
			name:    "error carries the reason",
			preview: Preview{State: StateError, Reason: "location is not configured", Now: now},
			want:    "Schedule unavailable: location is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.preview.Plain(); got != tt.want {
				t.Errorf("Plain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreviewRich(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}

	p := Preview{
		State:                StateScheduled,
		Now:                  time.Date(2024, 6, 21, 6, 0, 0, 0, london),
		Use24Hour:            true,
		NextSunrise:          time.Date(2024, 6, 21, 6, 47, 0, 0, london),
		NextSunset:           time.Date(2024, 6, 21, 20, 12, 0, 0, london),
		Latitude:             floatPtr(51.507351),
		Longitude:            floatPtr(-0.127758),
		Timezone:             "Europe/London",
		SunriseOffsetMinutes: 30,
		SunsetOffsetMinutes:  -15,
		LocationSource:       "global",
		OffsetsSource:        "entity",
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(p.Rich()), &doc); err != nil {
		t.Fatalf("Rich() is not valid JSON: %v", err)
	}

	checks := map[string]any{
		"state":                "scheduled",
		"nextPhase":            "day",
		"nextSunrise":          "2024-06-21T06:47:00+01:00",
		"nextSunset":           "2024-06-21T20:12:00+01:00",
		"nextEvent":            "2024-06-21T06:47:00+01:00",
		"timezone":             "Europe/London",
		"latitude":             51.507351,
		"longitude":            -0.127758,
		"sunriseOffsetMinutes": float64(30),
		"sunsetOffsetMinutes":  float64(-15),
		"locationSource":       "global",
		"offsetsSource":        "entity",
	}
	for key, want := range checks {
		if doc[key] != want {
			t.Errorf("Rich()[%q] = %v, want %v", key, doc[key], want)
		}
	}
	if _, ok := doc["reason"]; ok {
		t.Error("Rich() should omit reason when scheduled")
	}
}

func TestPreviewRichError(t *testing.T) {
	p := Preview{
		State:  StateError,
		Reason: "location is not configured",
		Now:    time.Date(2024, 6, 21, 6, 0, 0, 0, time.UTC),
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(p.Rich()), &doc); err != nil {
		t.Fatalf("Rich() is not valid JSON: %v", err)
	}
	if doc["state"] != "error" || doc["reason"] != "location is not configured" {
		t.Errorf("Rich() = %v", doc)
	}
	if _, ok := doc["nextSunrise"]; ok {
		t.Error("Rich() should omit event fields on error")
	}
	if _, ok := doc["latitude"]; ok {
		t.Error("Rich() should omit coordinates on error")
	}
}

func TestPreviewRichNextPhaseNight(t *testing.T) {
	utc := time.UTC
	p := Preview{
		State:       StateScheduled,
		Now:         time.Date(2024, 6, 21, 12, 0, 0, 0, utc),
		NextSunrise: time.Date(2024, 6, 22, 4, 44, 0, 0, utc),
		NextSunset:  time.Date(2024, 6, 21, 20, 12, 0, 0, utc),
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(p.Rich()), &doc); err != nil {
		t.Fatalf("Rich() is not valid JSON: %v", err)
	}
	if doc["nextPhase"] != "night" {
		t.Errorf("nextPhase = %v, want night", doc["nextPhase"])
	}
	if doc["nextEvent"] != "2024-06-21T20:12:00Z" {
		t.Errorf("nextEvent = %v", doc["nextEvent"])
	}
}

func TestFormatInstant(t *testing.T) {
	utc := time.UTC
	now := time.Date(2024, 6, 21, 12, 0, 0, 0, utc)

	tests := []struct {
		name   string
		at     time.Time
		use24h bool
		want   string
	}{
		{name: "same day 24h", at: time.Date(2024, 6, 21, 6, 47, 0, 0, utc), use24h: true, want: "06:47"},
		{name: "same day 12h", at: time.Date(2024, 6, 21, 20, 12, 0, 0, utc), want: "8:12 PM"},
		{name: "tomorrow 24h", at: time.Date(2024, 6, 22, 4, 44, 0, 0, utc), use24h: true, want: "Sat 04:44"},
		{name: "tomorrow 12h", at: time.Date(2024, 6, 22, 4, 44, 0, 0, utc), want: "Sat 4:44 AM"},
		{name: "midnight 24h", at: time.Date(2024, 6, 21, 0, 0, 0, 0, utc), use24h: true, want: "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatInstant(tt.at, now, tt.use24h); got != tt.want {
				t.Errorf("FormatInstant() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadLocation(t *testing.T) {
	if got := LoadLocation("Europe/London"); got.String() != "Europe/London" {
		t.Errorf("LoadLocation(Europe/London) = %v", got)
	}
	if got := LoadLocation(""); got != time.Local {
		t.Errorf("LoadLocation(\"\") = %v, want local", got)
	}
	if got := LoadLocation("Mars/Olympus_Mons"); got != time.Local {
		t.Errorf("LoadLocation(invalid) = %v, want local", got)
	}
}
