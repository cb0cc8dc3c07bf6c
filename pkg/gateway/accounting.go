package gateway

import (
	"context"
	"encoding/json"

	"mercator-hq/meridian/pkg/failover"
	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/providers"
	"mercator-hq/meridian/pkg/storage"
)

const (
	statusCompleted = storage.StatusCompleted
	statusFailed    = storage.StatusFailed
	statusCancelled = storage.StatusCancelled
)

// account fills token counts, pricing source, and costs on a successful
// result. When the provider omitted usage, counts are estimated locally
// and the result is flagged as estimated.
func (g *Gateway) account(result *Result, req *providers.CompletionRequest, usage *providers.TokenUsage, content string) {
	if usage != nil {
		result.InputTokens = usage.PromptTokens
		result.OutputTokens = usage.CompletionTokens
	} else if g.estimator != nil && req != nil {
		result.InputTokens = g.estimator.EstimateMessages(req.Messages, result.NativeID)
		result.OutputTokens = g.estimator.EstimateText(content, result.NativeID)
		result.EstimatedUsage = true
	}

	if g.pricing == nil {
		result.PricingSource = pricing.SourceUnknown
		return
	}

	quote := g.pricing.Resolve(result.CanonicalID, result.Provider, result.NativeID)
	result.PricingSource = quote.Source
	if !quote.Known() {
		return
	}

	cost := pricing.Compute(quote, result.InputTokens, result.OutputTokens)
	result.InputCost = &cost.InputCost
	result.OutputCost = &cost.OutputCost
	result.TotalCost = &cost.TotalCost
}

// recordMetrics publishes request, attempt, latency, token, cost, and
// circuit state metrics for one finalized request.
func (g *Gateway) recordMetrics(result *Result, outcome *failover.Outcome, status string) {
	if g.collector == nil {
		return
	}

	model := result.CanonicalID
	if model == "" {
		model = "unresolved"
	}

	provider := result.Provider
	if provider == "" {
		provider = "none"
	}
	g.collector.RecordRequest(provider, model, status, result.Duration)

	for _, attempt := range outcome.Attempts {
		g.collector.RecordAttempt(attempt.Provider, string(attempt.Kind))
		g.collector.RecordProviderLatency(attempt.Provider, model, attempt.Latency)
		if g.tracker != nil && result.CanonicalID != "" {
			state := g.tracker.State(result.CanonicalID, attempt.Provider)
			g.collector.SetCircuitState(attempt.Provider, result.CanonicalID, string(state))
		}
	}

	if result.Provider != "" {
		g.collector.RecordTokens(result.Provider, model, result.InputTokens, result.OutputTokens)
		if result.TotalCost != nil {
			g.collector.RecordCost(result.Provider, model, string(result.PricingSource), *result.TotalCost)
		}
	}
}

// persist writes the finalized request to storage. Persistence failures
// are logged, not surfaced; the response already succeeded or failed on
// its own terms.
func (g *Gateway) persist(ctx context.Context, result *Result, outcome *failover.Outcome, status storage.RequestStatus, errSummary string) {
	if g.store == nil {
		return
	}

	attempts, err := json.Marshal(outcome.Attempts)
	if err != nil {
		attempts = []byte("[]")
	}

	source := result.PricingSource
	if source == "" {
		source = pricing.SourceUnknown
	}

	rec := &storage.RequestRecord{
		ID:               result.RequestID,
		CanonicalID:      result.CanonicalID,
		Provider:         result.Provider,
		NativeID:         result.NativeID,
		InputTokens:      result.InputTokens,
		OutputTokens:     result.OutputTokens,
		InputCost:        result.InputCost,
		OutputCost:       result.OutputCost,
		TotalCost:        result.TotalCost,
		PricingSource:    source,
		Status:           status,
		Error:            errSummary,
		Attempts:         string(attempts),
		ProcessingTimeMs: result.Duration.Milliseconds(),
		CreatedAt:        g.now(),
	}

	// Persistence runs on the request path; a write failure must not turn
	// a served response into an error.
	if err := g.store.SaveRequest(context.WithoutCancel(ctx), rec); err != nil {
		g.logger.Error("failed to persist request",
			"request_id", result.RequestID,
			"error", err,
		)
	}
}
