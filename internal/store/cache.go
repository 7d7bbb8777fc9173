package store

import (
	"context"
	"sync"
	"time"

	"github.com/i474232898/weather-pipeline/internal/weather"
)

const citiesKey = "\x00cities"

type cacheEntry struct {
	rows     []weather.WeatherRow
	cities   []string
	storedAt time.Time
}

// CachedReader is a concurrency-safe, time-boxed cache in front of a
// weather.Reader. Results are reused for ttl so the dashboard cannot hit
// storage more often than once per refresh interval for the same query.
type CachedReader struct {
	mu sync.Mutex

	next weather.Reader

	// key: SeriesQuery.Key() or citiesKey
	entries map[string]cacheEntry

	ttl        time.Duration
	maxEntries int // 0 = unlimited
	now        func() time.Time
}

var _ weather.Reader = (*CachedReader)(nil)

// NewCachedReader wraps next. A ttl <= 0 disables caching.
func NewCachedReader(next weather.Reader, ttl time.Duration, maxEntries int) *CachedReader {
	return &CachedReader{
		next:       next,
		entries:    make(map[string]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Cities returns the cached city list or loads it from the wrapped reader.
func (c *CachedReader) Cities(ctx context.Context) ([]string, error) {
	if e, ok := c.get(citiesKey); ok {
		return e.cities, nil
	}
	cities, err := c.next.Cities(ctx)
	if err != nil {
		return nil, err
	}
	c.put(citiesKey, cacheEntry{cities: cities})
	return cities, nil
}

// Range returns cached rows for q or loads them from the wrapped reader.
// Errors are never cached.
func (c *CachedReader) Range(ctx context.Context, q weather.SeriesQuery) ([]weather.WeatherRow, error) {
	key := q.Key()
	if e, ok := c.get(key); ok {
		return e.rows, nil
	}
	rows, err := c.next.Range(ctx, q)
	if err != nil {
		return nil, err
	}
	c.put(key, cacheEntry{rows: rows})
	return rows, nil
}

// Invalidate drops every cached entry.
func (c *CachedReader) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of live entries.
func (c *CachedReader) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pruneLocked(c.now())
	return len(c.entries)
}

func (c *CachedReader) get(key string) (cacheEntry, bool) {
	if c.ttl <= 0 {
		return cacheEntry{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *CachedReader) put(key string, e cacheEntry) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	e.storedAt = now
	c.entries[key] = e

	// Enforce retention by age.
	c.pruneLocked(now)

	// Enforce retention by count, evicting the oldest entries.
	for c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		var (
			oldestKey string
			oldestAt  time.Time
		)
		for k, v := range c.entries {
			if oldestKey == "" || v.storedAt.Before(oldestAt) {
				oldestKey, oldestAt = k, v.storedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}

func (c *CachedReader) pruneLocked(now time.Time) {
	for k, v := range c.entries {
		if now.Sub(v.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}
