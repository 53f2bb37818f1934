package pipeline

import (
	"context"
	"errors"
	"net"

	"github.com/voicepipe/voicepipe/pkg/breaker"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

// Validation sentinels. These are rejected before the breaker or retry
// policy is reached, so they never count as backend failures.
var (
	ErrEmptyText      = errors.New("pipeline: empty text")
	ErrEmptyAudio     = errors.New("pipeline: empty audio data")
	ErrInvalidMessage = errors.New("pipeline: invalid message type")
)

// Class buckets an error for retry and failure-message decisions.
type Class int

const (
	// ClassPermanent errors fail immediately and are never retried.
	ClassPermanent Class = iota

	// ClassTransient errors may succeed on retry.
	ClassTransient

	// ClassValidation errors are caller mistakes, rejected up front.
	ClassValidation

	// ClassBreakerOpen means the circuit breaker rejected the call.
	ClassBreakerOpen
)

// String returns the class name used in failure messages.
func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassValidation:
		return "validation"
	case ClassBreakerOpen:
		return "breaker_open"
	default:
		return "permanent"
	}
}

// Classify buckets err. Rate limits, server errors, timeouts, and network
// failures are transient; explicit API rejections and unknown errors are
// permanent.
func Classify(err error) Class {
	if err == nil {
		return ClassPermanent
	}

	if errors.Is(err, breaker.ErrOpen) {
		return ClassBreakerOpen
	}

	if errors.Is(err, ErrEmptyText) || errors.Is(err, ErrEmptyAudio) || errors.Is(err, ErrInvalidMessage) {
		return ClassValidation
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ClassTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassTransient
	}

	var apiErr *tts.APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsRetryable() {
			return ClassTransient
		}
		return ClassPermanent
	}

	return ClassPermanent
}

// retryable reports whether the retry policy should try again.
func retryable(err error) bool {
	return Classify(err) == ClassTransient
}
