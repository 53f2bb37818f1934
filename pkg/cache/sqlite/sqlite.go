// Package sqlite provides a persistent cache.Store backed by SQLite, so
// synthesized audio survives process restarts. TTL expiry is enforced at
// read time against the entry's stored creation timestamp.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/voicepipe/voicepipe/pkg/cache"
)

const createTable = `
CREATE TABLE IF NOT EXISTS audio_cache (
	key TEXT PRIMARY KEY,
	audio BLOB NOT NULL,
	duration REAL NOT NULL,
	created_at DATETIME NOT NULL,
	ttl_seconds REAL NOT NULL
);
`

// Store is a SQLite-backed cache store.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the cache database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}
	return &Store{db: db}, nil
}

// Get implements cache.Store. Expired rows are reported as absent and
// removed opportunistically.
func (s *Store) Get(ctx context.Context, key string) (*cache.Entry, bool, error) {
	var (
		audio      []byte
		duration   float64
		createdAt  time.Time
		ttlSeconds float64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT audio, duration, created_at, ttl_seconds FROM audio_cache WHERE key = ?`,
		key,
	).Scan(&audio, &duration, &createdAt, &ttlSeconds)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	ttl := time.Duration(ttlSeconds * float64(time.Second))
	if ttl > 0 && time.Since(createdAt) > ttl {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM audio_cache WHERE key = ?`, key)
		return nil, false, nil
	}

	return &cache.Entry{
		Key:       key,
		Audio:     audio,
		Duration:  duration,
		CreatedAt: createdAt,
		TTL:       ttl,
	}, true, nil
}

// Put implements cache.Store. INSERT OR REPLACE gives last-writer-wins.
func (s *Store) Put(ctx context.Context, key string, entry *cache.Entry, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO audio_cache (key, audio, duration, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?, ?)`,
		key, entry.Audio, entry.Duration, entry.CreatedAt.UTC(), ttl.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Delete implements cache.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audio_cache WHERE key = ?`, key); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Clear implements cache.Store.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM audio_cache`); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

// ClearExpired removes only rows past their TTL.
func (s *Store) ClearExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM audio_cache WHERE (julianday('now') - julianday(created_at)) * 86400 > ttl_seconds`)
	if err != nil {
		return fmt.Errorf("cache clear expired: %w", err)
	}
	return nil
}

// Len implements cache.Store.
func (s *Store) Len(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audio_cache`).Scan(&count); err != nil {
		return 0, fmt.Errorf("cache len: %w", err)
	}
	return count, nil
}

// Ping implements cache.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements cache.Store.
func (s *Store) Close() error {
	return s.db.Close()
}

var _ cache.Store = (*Store)(nil)
