// Package cache holds read-heavy projections of the catalog (full listing,
// search results, statistics) for a bounded time. Expiry is checked lazily
// on read; there are no background goroutines.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultTTL matches the library's default of 300 seconds
	DefaultTTL = 300 * time.Second

	// Well-known view keys
	KeyAllBooks = "all_books"
)

// ComputeFunc builds a projection from the catalog on a cache miss
type ComputeFunc[T any] func() (T, error)

// Config controls caching. A zero TTL or Enabled=false disables caching.
type Config struct {
	Enabled bool
	TTL     time.Duration
}

// Stats is a snapshot of cache counters
type Stats struct {
	Enabled    bool          `json:"enabled" yaml:"enabled"`
	TTL        time.Duration `json:"ttl" yaml:"ttl"`
	Entries    int           `json:"entries" yaml:"entries"`
	Hits       uint64        `json:"hits" yaml:"hits"`
	Misses     uint64        `json:"misses" yaml:"misses"`
	Generation uint64        `json:"generation" yaml:"generation"`
}

type entry struct {
	value     any
	createdAt time.Time
}

// Cache maps view keys to computed values with a creation timestamp.
// Every InvalidateAll bumps the generation; a computation started in an
// older generation is never stored.
type Cache struct {
	mu         sync.Mutex
	cfg        Config
	entries    map[string]entry
	generation uint64
	hits       uint64
	misses     uint64
	now        func() time.Time
}

// Option configures a Cache
type Option func(*Cache)

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates an empty cache
func New(cfg Config, opts ...Option) *Cache {
	c := &Cache{
		cfg:     cfg,
		entries: make(map[string]entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether values are retained at all
func (c *Cache) Enabled() bool {
	return c != nil && c.cfg.Enabled && c.cfg.TTL > 0
}

// GetOrCompute returns the cached value for key if a non-expired entry
// exists, otherwise calls compute, stores its result and returns it.
// The boolean reports whether the value came from the cache.
// Errors from compute are returned as-is and never cached.
func GetOrCompute[T any](c *Cache, key string, compute ComputeFunc[T]) (T, bool, error) {
	var zero T

	if !c.Enabled() {
		data, err := compute()
		return data, false, err
	}

	cached, gen, ok := c.lookup(key)
	if ok {
		if result, typeOK := cached.(T); typeOK {
			slog.Debug("Cache hit", "key", key)
			return result, true, nil
		}
		slog.Warn("Cached value has unexpected type, recomputing", "key", key)
	}

	slog.Debug("Cache miss, computing", "key", key)
	data, err := compute()
	if err != nil {
		return zero, false, err
	}

	if c.store(key, data, gen) {
		slog.Debug("Value cached", "key", key)
	} else {
		slog.Debug("Skipping cache store, invalidated during compute", "key", key)
	}

	return data, false, nil
}

// InvalidateAll drops every entry. Called after each successful catalog mutation.
func (c *Cache) InvalidateAll() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := len(c.entries)
	c.entries = make(map[string]entry)
	c.generation++
	slog.Debug("Cache invalidated", "entries_dropped", dropped, "generation", c.generation)
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Enabled:    c.cfg.Enabled && c.cfg.TTL > 0,
		TTL:        c.cfg.TTL,
		Entries:    len(c.entries),
		Hits:       c.hits,
		Misses:     c.misses,
		Generation: c.generation,
	}
}

// lookup returns the live value for key and the generation observed.
// Expired entries are removed.
func (c *Cache) lookup(key string) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.now().Sub(e.createdAt) >= c.cfg.TTL {
		slog.Debug("Cache expired", "key", key, "age", c.now().Sub(e.createdAt))
		delete(c.entries, key)
		ok = false
	}
	if ok {
		c.hits++
		return e.value, c.generation, true
	}
	c.misses++
	return nil, c.generation, false
}

// store saves value unless the cache was invalidated since gen was observed
func (c *Cache) store(key string, value any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	c.entries[key] = entry{value: value, createdAt: c.now()}
	return true
}
