package failover

import (
	"context"
	"time"

	"mercator-hq/meridian/pkg/registry"
)

// RunFunc performs one provider call. The failover executor binds provider
// and native id from the plan; the caller binds everything else (request
// payload, adapter dispatch). The returned value is opaque to the executor.
type RunFunc func(ctx context.Context, provider, nativeID string) (interface{}, error)

// Options tunes one Execute call.
type Options struct {
	// Strategy orders the provider plan. Default: registry.StrategyPriority.
	Strategy registry.Strategy

	// Preferred moves the named provider to the head of the plan when it
	// survives filtering.
	Preferred string

	// RequiredFeatures keeps only bindings supporting every feature.
	RequiredFeatures []registry.Feature

	// MaxCostPer1K caps the per-1K-token input price of eligible bindings.
	MaxCostPer1K *float64

	// Excluded drops the listed provider slugs from the plan.
	Excluded []string

	// MaxAttempts caps how many bindings are tried. Default: 3.
	MaxAttempts int
}

// Attempt records one invocation of the run function against one binding.
type Attempt struct {
	// Provider is the provider slug tried.
	Provider string `json:"provider"`

	// NativeID is the provider-native model id used.
	NativeID string `json:"native_id"`

	// Start and End bound the attempt.
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Latency is the wall-clock duration of the attempt.
	Latency time.Duration `json:"latency"`

	// Success reports whether the run function returned without error.
	Success bool `json:"success"`

	// Kind classifies the failure. Empty on success.
	Kind ErrorKind `json:"kind,omitempty"`

	// StatusCode is the upstream HTTP status, when one exists.
	StatusCode int `json:"status_code,omitempty"`

	// Error is the truncated error message. Empty on success.
	Error string `json:"error,omitempty"`
}

// Outcome is the finalized result of one Execute.
type Outcome struct {
	// Success reports whether any attempt succeeded.
	Success bool

	// CanonicalID is the resolved canonical model id. Empty when the
	// identifier did not resolve.
	CanonicalID string

	// Provider and NativeID identify the winning binding on success.
	Provider string
	NativeID string

	// Response is the value returned by the successful run function.
	Response interface{}

	// Attempts lists every binding tried, in order.
	Attempts []Attempt

	// Kind classifies the terminal failure. KindNone on success.
	Kind ErrorKind

	// LastError is the error from the final failed attempt.
	LastError error
}

// Reason maps the terminal kind to the short reason string surfaced to
// callers.
func (o *Outcome) Reason() string {
	switch o.Kind {
	case KindNone:
		return ""
	case KindUnknownModel:
		return "unknown_model"
	case KindNoProvider:
		return "no_provider"
	case KindCancelled:
		return "cancelled"
	case KindDeadline:
		return "deadline_exceeded"
	default:
		return "provider_error"
	}
}
