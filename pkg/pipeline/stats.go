package pipeline

import (
	"sync/atomic"
	"time"

	"github.com/voicepipe/voicepipe/pkg/breaker"
	"github.com/voicepipe/voicepipe/pkg/cache"
)

// Stats aggregates pipeline counters with the cache and breaker snapshots.
type Stats struct {
	activeConnections atomic.Int64
	totalConnections  atomic.Int64
	messages          atomic.Int64
	syntheses         atomic.Int64
	transcriptions    atomic.Int64
	failures          atomic.Int64

	started time.Time
}

// NewStats creates a Stats aggregator.
func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

// ConnectionOpened increments the active and total connection counters.
func (s *Stats) ConnectionOpened() {
	s.activeConnections.Add(1)
	s.totalConnections.Add(1)
}

// ConnectionClosed decrements the active connection counter.
func (s *Stats) ConnectionClosed() {
	s.activeConnections.Add(-1)
}

// ActiveConnections returns the current connection count.
func (s *Stats) ActiveConnections() int64 {
	return s.activeConnections.Load()
}

func (s *Stats) recordMessage()       { s.messages.Add(1) }
func (s *Stats) recordSynthesis()     { s.syntheses.Add(1) }
func (s *Stats) recordTranscription() { s.transcriptions.Add(1) }
func (s *Stats) recordFailure()       { s.failures.Add(1) }

// Snapshot is the full stats surface returned by GET /stats.
type Snapshot struct {
	ActiveConnections int64          `json:"active_connections"`
	TotalConnections  int64          `json:"total_connections"`
	Messages          int64          `json:"messages"`
	Syntheses         int64          `json:"syntheses"`
	Transcriptions    int64          `json:"transcriptions"`
	Failures          int64          `json:"failures"`
	UptimeSeconds     float64        `json:"uptime_seconds"`
	Cache             cache.Stats    `json:"cache"`
	Breaker           breaker.Status `json:"circuit_breaker"`
}

// Snapshot merges the counters with live cache and breaker state.
func (s *Stats) Snapshot(c *cache.Cache, b *breaker.Breaker) Snapshot {
	snap := Snapshot{
		ActiveConnections: s.activeConnections.Load(),
		TotalConnections:  s.totalConnections.Load(),
		Messages:          s.messages.Load(),
		Syntheses:         s.syntheses.Load(),
		Transcriptions:    s.transcriptions.Load(),
		Failures:          s.failures.Load(),
		UptimeSeconds:     time.Since(s.started).Seconds(),
	}
	if c != nil {
		snap.Cache = c.Stats()
	}
	if b != nil {
		snap.Breaker = b.Status()
	}
	return snap
}
