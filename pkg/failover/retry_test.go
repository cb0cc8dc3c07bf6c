package failover

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/meridian/pkg/providers"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"cancelled", context.Canceled, KindCancelled},
		{"wrapped cancelled", fmt.Errorf("call: %w", context.Canceled), KindCancelled},
		{"deadline", context.DeadlineExceeded, KindDeadline},
		{"plain network error", errors.New("connection refused"), KindTransient},
		{"server error", &providers.ProviderError{Provider: "openai", StatusCode: 500, Message: "boom"}, KindTransient},
		{"bad gateway", &providers.ProviderError{Provider: "openai", StatusCode: 502, Message: "upstream"}, KindTransient},
		{"rate limited", &providers.RateLimitError{Provider: "openai"}, KindTransient},
		{"request timeout", &providers.ProviderError{Provider: "openai", StatusCode: 408, Message: "timeout"}, KindTransient},
		{"too early", &providers.ProviderError{Provider: "openai", StatusCode: 425, Message: "early"}, KindTransient},
		{"unauthorized", &providers.AuthError{Provider: "openai", StatusCode: 401}, KindCredential},
		{"forbidden", &providers.AuthError{Provider: "openai", StatusCode: 403}, KindCredential},
		{"model not found", &providers.ModelNotFoundError{Provider: "openai", NativeID: "gpt-99"}, KindCredential},
		{"bad request", &providers.ProviderError{Provider: "openai", StatusCode: 400, Message: "invalid"}, KindClient},
		{"unprocessable", &providers.ProviderError{Provider: "openai", StatusCode: 422, Message: "invalid"}, KindClient},
		{"parse failure no status", &providers.ParseError{Provider: "openai", Cause: errors.New("bad json")}, KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		kind ErrorKind
		want bool
	}{
		{KindTransient, true},
		{KindCredential, true},
		{KindClient, false},
		{KindCancelled, false},
		{KindDeadline, false},
		{KindUnknownModel, false},
		{KindNoProvider, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := retryable(tt.kind); got != tt.want {
				t.Errorf("retryable(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestRecordsFailure(t *testing.T) {
	live := context.Background()

	if recordsFailure(live, KindCancelled) {
		t.Error("caller cancellation must not count against the provider")
	}
	for _, kind := range []ErrorKind{KindTransient, KindCredential, KindClient} {
		if !recordsFailure(live, kind) {
			t.Errorf("recordsFailure(%s) = false, want true", kind)
		}
	}
}

func TestRecordsFailureDeadlineOwnership(t *testing.T) {
	// An adapter-timeout expiry surfaces while the caller's context is
	// still live: the provider was too slow and the failure counts.
	if !recordsFailure(context.Background(), KindDeadline) {
		t.Error("adapter timeout should count against the provider")
	}

	// When the caller's own deadline has expired, the impatience was
	// theirs and must not trip the circuit.
	expired, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	if recordsFailure(expired, KindDeadline) {
		t.Error("caller deadline expiry must not count against the provider")
	}
}
