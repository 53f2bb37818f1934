package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/voicepipe/voicepipe/pkg/breaker"
	"github.com/voicepipe/voicepipe/pkg/tts"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassPermanent},
		{"breaker open", &breaker.OpenError{Name: "tts", RetryAfter: time.Minute}, ClassBreakerOpen},
		{"empty text", ErrEmptyText, ClassValidation},
		{"empty audio", ErrEmptyAudio, ClassValidation},
		{"invalid message", ErrInvalidMessage, ClassValidation},
		{"wrapped validation", fmt.Errorf("handle: %w", ErrEmptyText), ClassValidation},
		{"deadline", context.DeadlineExceeded, ClassTransient},
		{"canceled", context.Canceled, ClassTransient},
		{"net timeout", timeoutErr{}, ClassTransient},
		{"rate limited", &tts.APIError{StatusCode: 429}, ClassTransient},
		{"server error", &tts.APIError{StatusCode: 502}, ClassTransient},
		{"unauthorized", &tts.APIError{StatusCode: 401}, ClassPermanent},
		{"quota", &tts.APIError{StatusCode: 402}, ClassPermanent},
		{"wrapped api error", tts.WrapError("elevenlabs", &tts.APIError{StatusCode: 500}), ClassTransient},
		{"unknown", errors.New("mystery"), ClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassString(t *testing.T) {
	pairs := map[Class]string{
		ClassPermanent:   "permanent",
		ClassTransient:   "transient",
		ClassValidation:  "validation",
		ClassBreakerOpen: "breaker_open",
	}
	for class, want := range pairs {
		if got := class.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", class, got, want)
		}
	}
}
