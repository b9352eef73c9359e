// Package settings defines the configuration keys of the day/night switcher
// and resolves global and per-entity values into one effective view.
//
// Settings live in kv buckets as plain strings: booleans as "true"/"false",
// numbers as decimal text. The "global" bucket carries shared values, each
// entity bucket carries overrides plus entity-only keys (actions, auth,
// enable flag, last delivered phase).
package settings

// Shared keys, present in the global bucket and overridable per entity.
const (
	KeyLatitude      = "latitude"
	KeyLongitude     = "longitude"
	KeyTimezone      = "timezone"
	KeyUse24HourTime = "use24HourTime"
	KeySyncOnStartup = "syncOnStartup"

	KeySunriseOffsetMinutes = "sunriseOffsetMinutes"
	KeySunsetOffsetMinutes  = "sunsetOffsetMinutes"

	KeyRetryCount       = "retryCount"
	KeyRetryBaseDelayMs = "retryBaseDelayMs"
	KeyLogResponses     = "logResponses"
)

// Entity-only keys.
const (
	KeyName    = "name"
	KeyEnabled = "enabled"

	// Category override flags: when set, the entity's own values for that
	// category replace the global ones wholesale.
	KeyOverrideLocation    = "overrideLocation"
	KeyOverrideOffsets     = "overrideOffsets"
	KeyOverrideReliability = "overrideReliability"

	KeyAuthType     = "authType"
	KeyAuthUsername = "authUsername"
	KeyAuthPassword = "authPassword"

	KeyLastPhase = "lastPhase"

	KeyPreviewPlain = "previewPlain"
	KeyPreviewRich  = "previewRich"
)

// Per-phase action keys, prefixed with the phase name ("day" or "night").
const (
	actionKeyURL         = "Url"
	actionKeyMethod      = "Method"
	actionKeyContentType = "ContentType"
	actionKeyHeaders     = "Headers"
	actionKeyBody        = "Body"
)

// ActionKeyURL returns the URL key for a phase, e.g. "dayUrl".
func ActionKeyURL(p Phase) string { return string(p) + actionKeyURL }

// ActionKeyMethod returns the HTTP method key for a phase, e.g. "nightMethod".
func ActionKeyMethod(p Phase) string { return string(p) + actionKeyMethod }

// ActionKeyContentType returns the content type key for a phase.
func ActionKeyContentType(p Phase) string { return string(p) + actionKeyContentType }

// ActionKeyHeaders returns the extra headers key for a phase.
func ActionKeyHeaders(p Phase) string { return string(p) + actionKeyHeaders }

// ActionKeyBody returns the request body key for a phase.
func ActionKeyBody(p Phase) string { return string(p) + actionKeyBody }
