// Package memory provides an in-process cache.Store with per-key TTL,
// LRU capacity eviction and a background janitor for expired entries.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/voicepipe/voicepipe/pkg/cache"
)

// DefaultMaxEntries bounds the store when no capacity is configured.
const DefaultMaxEntries = 4096

// DefaultJanitorInterval is how often the background sweep runs.
const DefaultJanitorInterval = 1 * time.Minute

type item struct {
	key       string
	entry     *cache.Entry
	expiresAt int64 // UnixNano; 0 means no expiry
}

func (i *item) expired(now time.Time) bool {
	return i.expiresAt > 0 && now.UnixNano() > i.expiresAt
}

// Store is a thread-safe in-memory cache store. Expired entries are removed
// lazily on Get and actively by the janitor; the oldest entry is evicted
// when capacity is reached.
type Store struct {
	mu         sync.Mutex
	data       map[string]*list.Element
	lru        *list.List // front = most recently used
	maxEntries int
	stop       chan struct{}
	stopOnce   sync.Once
}

// Option configures the store.
type Option func(*Store)

// WithMaxEntries sets the capacity before LRU eviction kicks in.
func WithMaxEntries(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// New creates a memory store and starts its janitor.
func New(opts ...Option) *Store {
	s := &Store{
		data:       make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: DefaultMaxEntries,
		stop:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.janitor(DefaultJanitorInterval)
	return s
}

// Get implements cache.Store.
func (s *Store) Get(ctx context.Context, key string) (*cache.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	it := el.Value.(*item)
	if it.expired(time.Now()) {
		s.removeLocked(el)
		return nil, false, nil
	}
	s.lru.MoveToFront(el)
	return it.entry, true, nil
}

// Put implements cache.Store. Last writer wins on key collision.
func (s *Store) Put(ctx context.Context, key string, entry *cache.Entry, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.data[key]; ok {
		el.Value = &item{key: key, entry: entry, expiresAt: expiresAt}
		s.lru.MoveToFront(el)
		return nil
	}

	s.data[key] = s.lru.PushFront(&item{key: key, entry: entry, expiresAt: expiresAt})

	for s.maxEntries > 0 && s.lru.Len() > s.maxEntries {
		if tail := s.lru.Back(); tail != nil {
			s.removeLocked(tail)
		}
	}
	return nil
}

// Delete implements cache.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if el, ok := s.data[key]; ok {
		s.removeLocked(el)
	}
	return nil
}

// Clear implements cache.Store.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]*list.Element)
	s.lru.Init()
	return nil
}

// Len implements cache.Store.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lru.Len(), nil
}

// Ping implements cache.Store. The in-process store is always reachable.
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// Close stops the janitor.
func (s *Store) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	return nil
}

func (s *Store) removeLocked(el *list.Element) {
	it := el.Value.(*item)
	delete(s.data, it.key)
	s.lru.Remove(el)
}

// janitor sweeps expired entries so memory is reclaimed even for keys that
// are never read again.
func (s *Store) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for el := s.lru.Back(); el != nil; {
				prev := el.Prev()
				if el.Value.(*item).expired(now) {
					s.removeLocked(el)
				}
				el = prev
			}
			s.mu.Unlock()
		}
	}
}

var _ cache.Store = (*Store)(nil)
