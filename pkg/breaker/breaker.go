// Package breaker implements a circuit breaker for the synthesis backend.
//
// The breaker is the single enforcement point between the dispatcher and the
// backend: every call goes through Execute. State moves between closed, open
// and half-open lazily, at call time. There is no background timer, so the
// visible state always reflects actual call attempts.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State identifies the breaker state.
type State int

const (
	// Closed is normal operation: calls pass through.
	Closed State = iota
	// Open rejects calls immediately without touching the backend.
	Open
	// HalfOpen lets probe calls through to test recovery.
	HalfOpen
)

// String returns the wire representation of the state.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is matched by errors.Is against the error Execute returns while
// the breaker is open.
var ErrOpen = errors.New("breaker: circuit open")

// OpenError is returned by Execute when the breaker rejects a call.
type OpenError struct {
	Name       string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *OpenError) Error() string {
	return fmt.Sprintf("breaker: circuit open for %s, retry after %s", e.Name, e.RetryAfter.Round(time.Second))
}

// Is reports ErrOpen identity for errors.Is.
func (e *OpenError) Is(target error) bool {
	return target == ErrOpen
}

// Config holds breaker thresholds.
type Config struct {
	// Name identifies the guarded backend in logs and errors.
	Name string

	// FailureThreshold is the number of consecutive failures while closed
	// that opens the circuit. Default 5.
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before the next
	// call attempt is allowed through as a probe. Default 60s.
	RecoveryTimeout time.Duration

	// SuccessThreshold is the number of consecutive probe successes while
	// half-open that closes the circuit. Default 2.
	SuccessThreshold int

	// Clock is replaceable in tests. Nil means time.Now.
	Clock func() time.Time

	// Logger for state transitions. Nil means slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns production thresholds for the given backend name.
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		FailureThreshold: 5,
		RecoveryTimeout:  60 * time.Second,
		SuccessThreshold: 2,
	}
}

// Breaker guards calls to a single backend. Safe for concurrent use: the
// state transition decision for each call is made under one mutex, while
// the guarded call itself runs outside it.
type Breaker struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	successes int
	openedAt  time.Time
}

// New creates a Breaker from the config, filling in defaults for zero fields.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Breaker{
		cfg:    cfg,
		logger: logger.With("component", "breaker", "name", cfg.Name),
		now:    now,
		state:  Closed,
	}
}

// Execute runs fn under breaker protection. While the circuit is open it
// returns *OpenError without invoking fn. fn's error (or nil) is recorded
// against the breaker state.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := fn(ctx)

	if err != nil {
		b.recordFailure()
		return err
	}
	b.recordSuccess()
	return nil
}

// admit evaluates the entry transition for one call. Exactly one logical
// evaluation happens per call even under concurrency.
func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != Open {
		return nil
	}

	elapsed := b.now().Sub(b.openedAt)
	if elapsed < b.cfg.RecoveryTimeout {
		return &OpenError{
			Name:       b.cfg.Name,
			RetryAfter: b.cfg.RecoveryTimeout - elapsed,
		}
	}

	b.state = HalfOpen
	b.successes = 0
	b.failures = 0
	b.logger.Info("state transition", "from", "open", "to", "half_open")
	return nil
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = Closed
			b.failures = 0
			b.successes = 0
			b.logger.Info("state transition", "from", "half_open", "to", "closed")
		}
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++

	switch b.state {
	case HalfOpen:
		// A single probe failure reopens the circuit.
		b.state = Open
		b.openedAt = b.now()
		b.successes = 0
		b.logger.Warn("state transition", "from", "half_open", "to", "open")
	case Closed:
		if b.failures >= b.cfg.FailureThreshold {
			b.state = Open
			b.openedAt = b.now()
			b.logger.Error("state transition", "from", "closed", "to", "open",
				"failures", b.failures)
		}
	}
}

// State returns the current state without triggering a transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Reset manually closes the circuit and clears all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.successes = 0
	b.openedAt = time.Time{}
	b.logger.Info("manual reset")
}

// Status is a point-in-time snapshot for the stats surface.
type Status struct {
	Name           string  `json:"name"`
	State          string  `json:"state"`
	Failures       int     `json:"failures"`
	Successes      int     `json:"successes"`
	RetryAfterSecs float64 `json:"retry_after_secs"`
}

// Status returns an observability snapshot.
func (b *Breaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	var retryAfter float64
	if b.state == Open {
		remaining := b.cfg.RecoveryTimeout - b.now().Sub(b.openedAt)
		if remaining > 0 {
			retryAfter = remaining.Seconds()
		}
	}
	return Status{
		Name:           b.cfg.Name,
		State:          b.state.String(),
		Failures:       b.failures,
		Successes:      b.successes,
		RetryAfterSecs: retryAfter,
	}
}
