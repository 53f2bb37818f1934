package backoff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDelaySequence(t *testing.T) {
	p := Default()

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{6, 10 * time.Second},
		{0, 1 * time.Second}, // clamped to first attempt
	}

	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDoRetriesTransientErrors(t *testing.T) {
	transient := errors.New("connection refused")
	var delays []time.Duration
	p := Default().WithSleep(func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return transient
	}, func(error) bool { return true })

	if !errors.Is(err, transient) {
		t.Errorf("expected last error after exhaustion, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls)
	}
	// Two sleeps between three attempts: 1s then 2s. A fourth attempt is
	// never made, so the 4s delay never happens.
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("unexpected delay sequence: %v", delays)
	}
}

func TestDoStopsOnSuccess(t *testing.T) {
	p := Default().WithSleep(func(ctx context.Context, d time.Duration) error { return nil })

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("flaky")
		}
		return nil
	}, func(error) bool { return true })

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}

func TestDoNeverRetriesNonRetryable(t *testing.T) {
	validation := errors.New("malformed input")
	p := Default().WithSleep(func(ctx context.Context, d time.Duration) error {
		t.Fatal("should not sleep for non-retryable errors")
		return nil
	})

	calls := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		calls++
		return validation
	}, func(error) bool { return false })

	if !errors.Is(err, validation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Default().WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	})

	transient := errors.New("timeout")
	calls := 0
	err := p.Do(ctx, func(ctx context.Context) error {
		calls++
		return transient
	}, func(error) bool { return true })

	if calls != 1 {
		t.Errorf("expected 1 attempt before cancellation, got %d", calls)
	}
	// The backend error is surfaced, not the context error.
	if !errors.Is(err, transient) {
		t.Errorf("expected transient error, got %v", err)
	}
}
