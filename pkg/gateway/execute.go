package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"

	"mercator-hq/meridian/pkg/failover"
	"mercator-hq/meridian/pkg/providers"
)

// Execute runs one non-streaming completion request. The model identifier
// may be a canonical id, an alias, a composite "provider/native" id, or a
// bare native id.
//
// On failure the returned error is a *RequestError carrying the terminal
// reason and the full attempt list. The failed request is persisted too.
func (g *Gateway) Execute(ctx context.Context, model string, req *providers.CompletionRequest, opts Options) (*Result, error) {
	requestID := uuid.NewString()
	start := g.now()

	run := func(ctx context.Context, provider, nativeID string) (interface{}, error) {
		adapter, ok := g.Adapter(provider)
		if !ok {
			return nil, &providers.ConfigError{
				Provider: provider,
				Field:    "adapter",
				Message:  "no adapter registered for provider",
			}
		}
		return adapter.Complete(ctx, nativeID, req)
	}

	outcome := g.executor.Execute(ctx, model, run, g.failoverOptions(opts))
	duration := g.now().Sub(start)

	if !outcome.Success {
		return nil, g.finalizeFailure(ctx, requestID, model, outcome, duration)
	}

	resp, _ := outcome.Response.(*providers.CompletionResponse)
	result := &Result{
		RequestID:   requestID,
		CanonicalID: outcome.CanonicalID,
		Provider:    outcome.Provider,
		NativeID:    outcome.NativeID,
		Response:    resp,
		Attempts:    outcome.Attempts,
		Duration:    duration,
	}

	var content string
	var usage *providers.TokenUsage
	if resp != nil {
		content = resp.Content
		usage = resp.Usage
	}
	g.account(result, req, usage, content)
	g.recordMetrics(result, outcome, "completed")
	g.persist(ctx, result, outcome, statusCompleted, "")

	g.logger.Info("request completed",
		"request_id", requestID,
		"model", outcome.CanonicalID,
		"provider", outcome.Provider,
		"attempts", len(outcome.Attempts),
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
		"pricing_source", result.PricingSource,
		"duration_ms", duration.Milliseconds(),
	)
	return result, nil
}

// finalizeFailure records, persists, and wraps a failed outcome.
func (g *Gateway) finalizeFailure(ctx context.Context, requestID, model string, outcome *failover.Outcome, duration time.Duration) *RequestError {
	reqErr := &RequestError{
		RequestID: requestID,
		Reason:    outcome.Reason(),
		Kind:      outcome.Kind,
		Attempts:  outcome.Attempts,
		Err:       outcome.LastError,
	}

	status := statusFailed
	if outcome.Kind == failover.KindCancelled {
		status = statusCancelled
	}

	result := &Result{
		RequestID:   requestID,
		CanonicalID: outcome.CanonicalID,
		Attempts:    outcome.Attempts,
		Duration:    duration,
	}

	g.recordMetrics(result, outcome, string(status))
	g.persist(ctx, result, outcome, status, reqErr.Reason)

	g.logger.Warn("request failed",
		"request_id", requestID,
		"model", model,
		"reason", reqErr.Reason,
		"attempts", len(outcome.Attempts),
	)
	return reqErr
}
