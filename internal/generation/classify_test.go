package generation

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		expect Class
	}{
		{"rate limited", NewError(KindRateLimited, 429, "slow down", nil), ClassRetryable},
		{"server error", NewError(KindServerError, 500, "internal", nil), ClassRetryable},
		{"content policy", NewError(KindContentPolicy, 400, "rejected", nil), ClassRetryable},
		{"timeout", NewError(KindTimeout, 0, "deadline", nil), ClassRetryable},
		{"invalid request", NewError(KindInvalidRequest, 400, "bad size", nil), ClassFatal},
		{"unauthorized", NewError(KindUnauthorized, 401, "bad key", nil), ClassFatal},
		{"unrecognised kind", NewError(KindUnknown, 418, "teapot", nil), ClassFatal},
		{"wrapped retryable", fmt.Errorf("call: %w", NewError(KindRateLimited, 429, "", nil)), ClassRetryable},
		{"plain error", errors.New("connection reset by peer"), ClassUnknown},
		{"context error", context.Canceled, ClassUnknown},
		{"nil", nil, ClassUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.expect {
			t.Errorf("%s: Classify(%v) = %v, want %v", tt.name, tt.err, got, tt.expect)
		}
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("eof")
	err := fmt.Errorf("generate: %w", NewError(KindServerError, 502, "", cause))

	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	var genErr *Error
	if !errors.As(err, &genErr) || genErr.Status != 502 {
		t.Errorf("expected *Error with status 502, got %v", genErr)
	}
}
