package kafka

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ErrorTypeUnknown},
		{"connection refused", errors.New("dial tcp: connection refused"), ErrorTypeTransient},
		{"timeout", errors.New("request Timeout exceeded"), ErrorTypeTransient},
		{"deadline", errors.New("context deadline exceeded"), ErrorTypeTransient},
		{"schema problem", errors.New("cannot unmarshal payload"), ErrorTypePermanent},
		{"explicit transient", NewTransientError("broker busy", nil), ErrorTypeTransient},
		{"explicit permanent", NewPermanentError("bad payload", nil), ErrorTypePermanent},
		{"wrapped kafka error", fmt.Errorf("handling: %w", NewPermanentError("bad", nil)), ErrorTypePermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	transient := NewTransientError("broker busy", nil)

	if !ShouldRetry(transient, 0, 3) {
		t.Error("a transient error under the limit should retry")
	}
	if ShouldRetry(transient, 3, 3) {
		t.Error("retries at the limit should stop")
	}
	if ShouldRetry(NewPermanentError("bad payload", nil), 0, 3) {
		t.Error("permanent errors should never retry")
	}
	if ShouldRetry(nil, 0, 3) {
		t.Error("nil errors should never retry")
	}
}

func TestKafkaErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewTransientError("wrapper", cause)

	if !errors.Is(err, cause) {
		t.Error("cause should survive errors.Is")
	}
}
