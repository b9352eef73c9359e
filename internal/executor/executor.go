// Package executor delivers the HTTP action configured for a phase. Every
// invocation resolves its request from the effective settings at call time,
// runs with a per-attempt timeout, and retries failures with exponential
// backoff and jitter.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rustyd0g/scrypted-daynightswitcher/internal/settings"
)

const (
	// DefaultAttemptTimeout bounds a single HTTP attempt including the
	// digest handshake round trip.
	DefaultAttemptTimeout = 10 * time.Second

	// DefaultRateLimitRPS caps outbound action requests across all entities.
	DefaultRateLimitRPS = 10.0

	backoffJitterMax = 250 * time.Millisecond
	maxBackoff       = 2 * time.Minute

	responseLogLimit = 64 * 1024
	responseLogChunk = 4 * 1024
)

var (
	// ErrNoActionURL means the phase has no URL configured, which fails
	// fast without consuming a retry attempt.
	ErrNoActionURL = errors.New("no action URL configured")

	// ErrBadStatus means the target answered outside the 2xx range.
	ErrBadStatus = errors.New("unexpected response status")
)

// Config tunes an Executor. Zero values select the defaults.
type Config struct {
	AttemptTimeout time.Duration
	RateLimitRPS   float64
}

// Executor sends phase actions over a shared HTTP client, rate limited
// across all entities.
type Executor struct {
	client         *http.Client
	limiter        *rate.Limiter
	attemptTimeout time.Duration

	// jitter is swapped out in tests for determinism.
	jitter func(max time.Duration) time.Duration
}

// New creates an executor with default settings.
func New() *Executor {
	return NewWithConfig(Config{})
}

// NewWithConfig creates an executor with the given settings.
func NewWithConfig(cfg Config) *Executor {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = DefaultRateLimitRPS
	}
	burst := int(cfg.RateLimitRPS)
	if burst < 1 {
		burst = 1
	}

	return &Executor{
		client:         &http.Client{Transport: http.DefaultTransport},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst),
		attemptTimeout: cfg.AttemptTimeout,
		jitter: func(max time.Duration) time.Duration {
			return rand.N(max)
		},
	}
}

// Invoke sends the action configured for phase and retries per the entity's
// reliability settings. It returns nil as soon as one attempt gets a 2xx
// response, or the final attempt's error once the retry budget is spent.
func (e *Executor) Invoke(ctx context.Context, entityID string, eff settings.Effective, phase settings.Phase) error {
	action := eff.ActionFor(phase)
	if strings.TrimSpace(action.URL) == "" {
		return fmt.Errorf("%w for %s", ErrNoActionURL, phase)
	}

	method := normalizeMethod(action.Method)
	headers := buildHeaders(method, action.ContentType, action.ExtraHeaders)
	client := e.clientFor(eff.Auth)

	logger := log.With().
		Str("entity", entityID).
		Str("phase", string(phase)).
		Str("invocation", uuid.NewString()).
		Logger()

	attempts := eff.RetryCount
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := backoffDelay(eff.RetryBaseDelay, attempt-2) + e.jitter(backoffJitterMax)
			logger.Warn().
				Err(lastErr).
				Int("attempt", attempt).
				Int("max_attempts", attempts).
				Dur("backoff", backoff).
				Msg("Action attempt failed, retrying")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = e.attempt(ctx, client, method, action, headers, eff.Auth, eff.LogResponses, logger)
		if lastErr == nil {
			logger.Info().
				Str("method", method).
				Str("url", action.URL).
				Int("attempt", attempt).
				Msg("Action delivered")
			return nil
		}
	}

	logger.Error().
		Err(lastErr).
		Str("url", action.URL).
		Int("attempts", attempts).
		Msg("Action failed after all attempts")
	return lastErr
}

// attempt performs one HTTP round trip under the per-attempt timeout.
func (e *Executor) attempt(ctx context.Context, client *http.Client, method string, action settings.Action, headers map[string]string, auth settings.Auth, logResponse bool, logger zerolog.Logger) error {
	attemptCtx, cancel := context.WithTimeout(ctx, e.attemptTimeout)
	defer cancel()

	var body io.Reader
	if methodAllowsBody(method) && action.Body != "" {
		body = strings.NewReader(action.Body)
	}

	req, err := http.NewRequestWithContext(attemptCtx, method, action.URL, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	applyAuth(req, auth)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	e.logResponse(logger, resp, logResponse)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}
	return nil
}

// backoffDelay doubles the base delay per spent attempt, capped so a long
// retry series cannot stretch into hours.
func backoffDelay(base time.Duration, exponent int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < exponent; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

// logResponse drains the response body, logging it when response logging is
// enabled. The body is emitted in fixed-size chunks up to a hard cap;
// whatever exceeds the cap is counted and dropped.
func (e *Executor) logResponse(logger zerolog.Logger, resp *http.Response, enabled bool) {
	// Drain whatever this function leaves unread, for connection reuse.
	defer io.Copy(io.Discard, resp.Body)

	if !enabled {
		return
	}

	contentType := resp.Header.Get("Content-Type")
	logger.Info().
		Str("status", resp.Status).
		Str("content_type", contentType).
		Msg("Action response")

	if !loggableContentType(contentType) {
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, responseLogLimit))
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read action response body")
		return
	}
	for offset := 0; offset < len(body); offset += responseLogChunk {
		end := offset + responseLogChunk
		if end > len(body) {
			end = len(body)
		}
		logger.Info().Int("offset", offset).Msg(string(body[offset:end]))
	}
	if truncated, _ := io.Copy(io.Discard, resp.Body); truncated > 0 {
		logger.Info().Int64("truncated_bytes", truncated).Msg("Action response body truncated")
	}
}

// loggableContentType reports whether a response body is textual enough to
// log: text/*, JSON, XML, form-urlencoded, or a missing content type.
func loggableContentType(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return false
	}
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	if strings.HasSuffix(mediaType, "+json") || strings.HasSuffix(mediaType, "+xml") {
		return true
	}
	switch mediaType {
	case "application/json", "application/xml", "application/x-www-form-urlencoded":
		return true
	}
	return false
}
