package executor

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

var allowedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// normalizeMethod uppercases and validates the configured HTTP method,
// falling back to GET for anything outside the allowed set.
func normalizeMethod(raw string) string {
	method := strings.ToUpper(strings.TrimSpace(raw))
	if method == "" {
		return http.MethodGet
	}
	if !allowedMethods[method] {
		log.Warn().Str("method", raw).Msg("Unsupported HTTP method, falling back to GET")
		return http.MethodGet
	}
	return method
}

// methodAllowsBody reports whether a request body and content type are sent
// for the method.
func methodAllowsBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// buildHeaders assembles the outgoing header set: the explicit content type
// first (body-capable methods only), then the free-form extra headers merged
// on top, so an extra "Content-Type" wins over the dedicated setting.
func buildHeaders(method, contentType, extraJSON string) map[string]string {
	headers := make(map[string]string)
	if methodAllowsBody(method) && contentType != "" {
		headers["Content-Type"] = contentType
	}
	mergeExtraHeaders(headers, extraJSON)
	return headers
}

// mergeExtraHeaders parses the free-form headers setting, which must be a
// JSON object. Malformed or non-object input is logged and ignored rather
// than blocking the action.
func mergeExtraHeaders(headers map[string]string, raw string) {
	if strings.TrimSpace(raw) == "" {
		return
	}

	var extra map[string]any
	if err := json.Unmarshal([]byte(raw), &extra); err != nil {
		log.Warn().Err(err).Msg("Extra headers setting is not a JSON object, ignoring")
		return
	}

	for name, value := range extra {
		headers[name] = headerValue(value)
	}
}

// headerValue renders a decoded JSON value as a header string: scalars are
// stringified, nested objects and arrays are re-serialized to JSON text.
func headerValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
