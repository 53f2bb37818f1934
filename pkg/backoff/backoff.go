// Package backoff implements the retry delay policy for transient backend
// failures: exponential delays with a hard cap and a bounded attempt count.
package backoff

import (
	"context"
	"time"
)

// Default policy values.
const (
	DefaultMinWait     = 1 * time.Second
	DefaultMaxWait     = 10 * time.Second
	DefaultMultiplier  = 2.0
	DefaultMaxAttempts = 3
)

// Policy computes the delay sequence for retried calls.
// The zero value is not usable; construct with Default() or set all fields.
type Policy struct {
	MinWait     time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	MaxAttempts int

	// sleep is replaceable in tests. Nil means context-aware time.Sleep.
	sleep func(ctx context.Context, d time.Duration) error
}

// Default returns the production policy: 1s, 2s, 4s... capped at 10s,
// at most 3 attempts.
func Default() Policy {
	return Policy{
		MinWait:     DefaultMinWait,
		MaxWait:     DefaultMaxWait,
		Multiplier:  DefaultMultiplier,
		MaxAttempts: DefaultMaxAttempts,
	}
}

// WithSleep returns a copy of the policy using fn instead of real sleeping.
func (p Policy) WithSleep(fn func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = fn
	return p
}

// Delay returns the wait before retrying after the given 1-indexed attempt.
// Attempts below 1 are treated as the first attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.MinWait)
	for i := 1; i < attempt; i++ {
		d *= p.Multiplier
		if d >= float64(p.MaxWait) {
			return p.MaxWait
		}
	}
	if d > float64(p.MaxWait) {
		return p.MaxWait
	}
	return time.Duration(d)
}

// Do runs fn up to MaxAttempts times, sleeping Delay(n) after the nth
// failed attempt. Only errors for which retryable returns true are retried;
// anything else, and the error of the final attempt, is returned as-is.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error, retryable func(error) bool) error {
	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || attempt == p.MaxAttempts {
			return err
		}
		if serr := p.doSleep(ctx, p.Delay(attempt)); serr != nil {
			return err
		}
	}
	return err
}

func (p Policy) doSleep(ctx context.Context, d time.Duration) error {
	if p.sleep != nil {
		return p.sleep(ctx, d)
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
