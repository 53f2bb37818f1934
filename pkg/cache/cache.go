// Package cache implements the cache-aside layer that deduplicates synthesis
// requests. Keys are content-addressed fingerprints of the normalized request
// text; entries are immutable audio artifacts. Reads fail open: a store error
// is reported as a miss, never to the caller.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// keyPrefix namespaces cache keys in shared stores.
const keyPrefix = "tts:audio:"

// Key derives the cache key for the given request text: case-folded,
// trimmed, inner whitespace collapsed, then SHA-256 hashed. Identical
// normalized text always yields the same key.
func Key(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Entry is a cached synthesis artifact. Entries are never mutated after
// creation; concurrent readers share them freely.
type Entry struct {
	Key       string        `json:"key"`
	Audio     []byte        `json:"audio"`
	Duration  float64       `json:"duration"` // seconds
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// Store is the backing key-value store. Expiry and capacity eviction are the
// store's responsibility; the cache layer only observes hit/miss outcomes.
type Store interface {
	// Get returns the entry for key, or found=false if absent or expired.
	Get(ctx context.Context, key string) (*Entry, bool, error)

	// Put writes an entry under key with the given TTL. Overwrites are
	// last-writer-wins; entries are immutable blobs, so racing writers
	// cannot corrupt data.
	Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error

	// Delete removes the entry for key if present.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Len returns the number of live entries.
	Len(ctx context.Context) (int, error)

	// Ping checks store reachability.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// Stats is the cache performance snapshot exposed on the stats surface.
type Stats struct {
	Hits                int64   `json:"hits"`
	Misses              int64   `json:"misses"`
	TotalRequests       int64   `json:"total_requests"`
	HitRate             float64 `json:"hit_rate"`
	ReductionPercentage float64 `json:"reduction_percentage"`
}

// Cache is the cache-aside layer over a Store. Hit/miss counters are
// updated exactly once per Get, atomically.
type Cache struct {
	store  Store
	ttl    time.Duration
	logger *slog.Logger

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Cache over store with a fixed per-deployment TTL applied at
// write time. A nil logger means slog.Default().
func New(store Store, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "cache"),
	}
}

// Get looks up the entry for key. A store error degrades to a miss: the
// request proceeds to the backend, and the error is logged, not surfaced.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, bool) {
	entry, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.misses.Add(1)
		c.logger.Error("store get failed, treating as miss", "error", err)
		return nil, false
	}
	if !found {
		c.misses.Add(1)
		c.logger.Debug("cache miss", "key", shortKey(key))
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", shortKey(key))
	return entry, true
}

// Put stores audio under key with the deployment TTL. Store errors are
// logged and swallowed: failing to cache never fails the request.
func (c *Cache) Put(ctx context.Context, key string, audio []byte, duration float64) {
	entry := &Entry{
		Key:       key,
		Audio:     audio,
		Duration:  duration,
		CreatedAt: time.Now().UTC(),
		TTL:       c.ttl,
	}
	if err := c.store.Put(ctx, key, entry, c.ttl); err != nil {
		c.logger.Error("store put failed", "error", err)
		return
	}
	c.logger.Debug("cache set", "key", shortKey(key), "ttl", c.ttl)
}

// Delete removes the entry for the given request text.
func (c *Cache) Delete(ctx context.Context, text string) error {
	return c.store.Delete(ctx, Key(text))
}

// Clear removes all cached entries.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Len returns the number of cached entries, or 0 if the store is unreachable.
func (c *Cache) Len(ctx context.Context) int {
	n, err := c.store.Len(ctx)
	if err != nil {
		return 0
	}
	return n
}

// Ping reports whether the backing store is reachable.
func (c *Cache) Ping(ctx context.Context) bool {
	return c.store.Ping(ctx) == nil
}

// Close releases the backing store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// Stats returns the hit/miss snapshot. HitRate is hits/(hits+misses) and 0
// when no requests have occurred; ReductionPercentage is the same ratio,
// reported separately for the stats surface.
func (c *Cache) Stats() Stats {
	hits := c.hits.Load()
	misses := c.misses.Load()
	total := hits + misses

	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total)
	}
	return Stats{
		Hits:                hits,
		Misses:              misses,
		TotalRequests:       total,
		HitRate:             rate,
		ReductionPercentage: rate,
	}
}

// shortKey abbreviates a key for log lines.
func shortKey(key string) string {
	if len(key) > 20 {
		return key[:20]
	}
	return key
}
