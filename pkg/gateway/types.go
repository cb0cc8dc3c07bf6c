package gateway

import (
	"fmt"
	"time"

	"mercator-hq/meridian/pkg/failover"
	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/providers"
	"mercator-hq/meridian/pkg/registry"
)

// Options tunes one gateway request.
type Options struct {
	// Strategy orders the provider plan. Default: the gateway's
	// configured default strategy.
	Strategy registry.Strategy

	// Preferred moves the named provider to the head of the plan.
	Preferred string

	// RequiredFeatures keeps only bindings supporting every feature.
	RequiredFeatures []registry.Feature

	// MaxCostPer1K caps the per-1K-token input price of eligible bindings.
	MaxCostPer1K *float64

	// Excluded drops the listed provider slugs from the plan.
	Excluded []string

	// MaxAttempts caps how many bindings are tried. Default: the
	// gateway's configured maximum.
	MaxAttempts int
}

// Result is the finalized outcome of one non-streaming request.
type Result struct {
	// RequestID is the gateway-assigned request identifier.
	RequestID string `json:"request_id"`

	// CanonicalID, Provider, and NativeID identify the winning binding.
	CanonicalID string `json:"canonical_id"`
	Provider    string `json:"provider"`
	NativeID    string `json:"native_id"`

	// Response is the normalized completion.
	Response *providers.CompletionResponse `json:"response,omitempty"`

	// InputTokens and OutputTokens are the accounted token counts.
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`

	// EstimatedUsage is true when the provider omitted usage and the
	// counts were estimated locally.
	EstimatedUsage bool `json:"estimated_usage,omitempty"`

	// InputCost, OutputCost, and TotalCost are USD amounts; nil when
	// pricing could not be resolved.
	InputCost  *float64 `json:"input_cost,omitempty"`
	OutputCost *float64 `json:"output_cost,omitempty"`
	TotalCost  *float64 `json:"total_cost,omitempty"`

	// PricingSource tags where the applied price came from.
	PricingSource pricing.Source `json:"pricing_source"`

	// Attempts lists every binding tried, in order.
	Attempts []failover.Attempt `json:"attempts"`

	// Duration is the end-to-end wall-clock time.
	Duration time.Duration `json:"duration"`
}

// RequestError is the terminal error of a failed gateway request.
type RequestError struct {
	// RequestID is the gateway-assigned request identifier.
	RequestID string

	// Reason is the short machine-readable failure reason
	// ("unknown_model", "no_provider", "cancelled", "deadline_exceeded",
	// "provider_error").
	Reason string

	// Kind classifies the terminal failure.
	Kind failover.ErrorKind

	// Attempts lists every binding tried.
	Attempts []failover.Attempt

	// Err is the underlying error from the final attempt, when one exists.
	Err error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request %s failed (%s): %v", e.RequestID, e.Reason, e.Err)
	}
	return fmt.Sprintf("request %s failed (%s)", e.RequestID, e.Reason)
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// StreamResult is a live streaming response. Chunks proxies the upstream
// stream; Wait blocks until the stream has ended and accounting is
// finalized.
type StreamResult struct {
	// RequestID is the gateway-assigned request identifier.
	RequestID string

	// CanonicalID, Provider, and NativeID identify the winning binding.
	CanonicalID string
	Provider    string
	NativeID    string

	// Chunks delivers incremental response pieces. The channel is closed
	// when the stream ends; a chunk with Err set signals abnormal
	// termination.
	Chunks <-chan *providers.StreamChunk

	done chan *Result
}

// Wait blocks until the stream has fully drained and returns the
// finalized accounting result.
func (s *StreamResult) Wait() *Result {
	return <-s.done
}
