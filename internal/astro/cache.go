package astro

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog/log"
)

// DefaultCacheSize bounds the number of memoized (location, day) entries.
const DefaultCacheSize = 1000

// Cache memoizes Calculator results keyed by rounded coordinates and local
// calendar day. Entries are evicted least-recently-used once the capacity
// is reached; a Get refreshes an entry's recency. Cache itself implements
// Calculator, so it can stand in wherever raw computation would.
type Cache struct {
	calc    Calculator
	entries *lru.Cache
}

// NewCache creates a cache of the given capacity around calc.
func NewCache(calc Calculator, size int) (*Cache, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create astro cache: %w", err)
	}
	return &Cache{calc: calc, entries: entries}, nil
}

// SunTimes returns the memoized solar times for the coordinate on the
// calendar day of date, computing and storing them on a miss.
func (c *Cache) SunTimes(date time.Time, lat, lon float64) Times {
	key := cacheKey(date, lat, lon)

	if cached, ok := c.entries.Get(key); ok {
		return cached.(Times)
	}

	times := c.calc.SunTimes(date, lat, lon)
	c.entries.Add(key, times)
	log.Debug().
		Str("key", key).
		Time("sunrise", times.Sunrise).
		Time("sunset", times.Sunset).
		Msg("Computed solar times")

	return times
}

// Purge drops every memoized entry.
func (c *Cache) Purge() {
	c.entries.Purge()
}

// Len returns the number of memoized entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

// cacheKey renders the memoization key. Coordinates are rounded to six
// decimal places (about 11cm) so float jitter from settings round-trips
// still hits the same entry; the day component is the calendar day in
// date's timezone.
func cacheKey(date time.Time, lat, lon float64) string {
	return fmt.Sprintf("%.6f,%.6f,%s", lat, lon, date.Format("2006-01-02"))
}
