package settings

import (
	"time"
)

// Defaults applied when neither layer carries a usable value.
const (
	DefaultRetryCount     = 3
	DefaultRetryBaseDelay = time.Second
)

// Resolve merges the global and entity stores into one effective view.
//
// Resolution is per category, not per field: a set override flag makes the
// whole category read from the entity store, an unset flag makes it read
// from the global store. An unset field in the selected layer resolves to
// its default even if the other layer has a value for it.
func Resolve(global, entity *Store) Effective {
	var eff Effective

	location := global
	if on, _ := entity.Bool(KeyOverrideLocation); on {
		location = entity
		eff.LocationFromEntity = true
	}
	offsets := global
	if on, _ := entity.Bool(KeyOverrideOffsets); on {
		offsets = entity
		eff.OffsetsFromEntity = true
	}
	reliability := global
	if on, _ := entity.Bool(KeyOverrideReliability); on {
		reliability = entity
		eff.ReliabilityFromEntity = true
	}

	if v, ok := location.Float(KeyLatitude); ok {
		v = clampFloat(v, -90, 90)
		eff.Latitude = &v
	}
	if v, ok := location.Float(KeyLongitude); ok {
		v = clampFloat(v, -180, 180)
		eff.Longitude = &v
	}
	eff.Timezone, _ = location.Str(KeyTimezone)
	eff.Use24HourTime, _ = location.Bool(KeyUse24HourTime)
	eff.SyncOnStartup, _ = location.Bool(KeySyncOnStartup)

	if v, ok := offsets.Int(KeySunriseOffsetMinutes); ok {
		eff.SunriseOffsetMinutes = clampInt(v, -720, 720)
	}
	if v, ok := offsets.Int(KeySunsetOffsetMinutes); ok {
		eff.SunsetOffsetMinutes = clampInt(v, -720, 720)
	}

	eff.RetryCount = DefaultRetryCount
	if v, ok := reliability.Int(KeyRetryCount); ok {
		eff.RetryCount = v
	}
	if eff.RetryCount < 1 {
		eff.RetryCount = 1
	}
	eff.RetryBaseDelay = DefaultRetryBaseDelay
	if v, ok := reliability.Int(KeyRetryBaseDelayMs); ok {
		if v < 0 {
			v = 0
		}
		eff.RetryBaseDelay = time.Duration(v) * time.Millisecond
	}
	eff.LogResponses, _ = reliability.Bool(KeyLogResponses)

	eff.Enabled, _ = entity.Bool(KeyEnabled)

	rawAuth, _ := entity.Str(KeyAuthType)
	eff.Auth.Type = ParseAuthType(rawAuth)
	eff.Auth.Username, _ = entity.Str(KeyAuthUsername)
	eff.Auth.Password, _ = entity.Str(KeyAuthPassword)

	eff.Day = resolveAction(entity, PhaseDay)
	eff.Night = resolveAction(entity, PhaseNight)

	return eff
}

func resolveAction(entity *Store, p Phase) Action {
	var a Action
	a.URL, _ = entity.Str(ActionKeyURL(p))
	a.Method, _ = entity.Str(ActionKeyMethod(p))
	a.ContentType, _ = entity.Str(ActionKeyContentType(p))
	a.ExtraHeaders, _ = entity.Str(ActionKeyHeaders(p))
	a.Body, _ = entity.Str(ActionKeyBody(p))
	return a
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
