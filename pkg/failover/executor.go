package failover

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/meridian/pkg/health"
	"mercator-hq/meridian/pkg/providers"
	"mercator-hq/meridian/pkg/registry"
)

// DefaultMaxAttempts caps the provider plan when Options.MaxAttempts is
// unset.
const DefaultMaxAttempts = 3

// Executor runs requests across provider chains with failover.
// Safe for concurrent use; concurrent Execute calls on the same canonical
// model are independent and may pick different providers.
type Executor struct {
	registry *registry.Registry
	tracker  *health.Tracker
	logger   *slog.Logger
	now      func() time.Time
}

// NewExecutor creates an executor over a registry and health tracker.
func NewExecutor(reg *registry.Registry, tracker *health.Tracker) *Executor {
	return &Executor{
		registry: reg,
		tracker:  tracker,
		logger:   slog.Default().With("component", "failover.executor"),
		now:      time.Now,
	}
}

// Execute resolves the model identifier, derives an ordered provider plan,
// and invokes run against each binding until one succeeds or the chain is
// exhausted. Every attempt's result is fed back into the health tracker
// (except caller cancellation, which is nobody's fault).
//
// The executor holds no registry or tracker locks across run.
func (e *Executor) Execute(ctx context.Context, modelID string, run RunFunc, opts Options) *Outcome {
	canonicalID, ok := e.registry.Resolve(modelID)
	if !ok {
		e.logger.Debug("model identifier did not resolve", "model", modelID)
		return &Outcome{Kind: KindUnknownModel}
	}

	strategy := opts.Strategy
	if strategy == "" {
		strategy = registry.StrategyPriority
	}

	plan, found := e.registry.SelectProviders(canonicalID, strategy, e.tracker, registry.SelectOptions{
		RequiredFeatures: opts.RequiredFeatures,
		MaxCostPer1K:     opts.MaxCostPer1K,
		Excluded:         opts.Excluded,
		Preferred:        opts.Preferred,
	})
	if !found || len(plan) == 0 {
		e.logger.Warn("no available provider for model",
			"model", canonicalID,
			"strategy", strategy,
		)
		return &Outcome{CanonicalID: canonicalID, Kind: KindNoProvider}
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if len(plan) > maxAttempts {
		plan = plan[:maxAttempts]
	}

	outcome := &Outcome{CanonicalID: canonicalID}

	for i, binding := range plan {
		start := e.now()
		response, err := run(ctx, binding.Provider, binding.NativeID)
		end := e.now()
		latency := end.Sub(start)

		attempt := Attempt{
			Provider: binding.Provider,
			NativeID: binding.NativeID,
			Start:    start,
			End:      end,
			Latency:  latency,
			Success:  err == nil,
		}

		if err == nil {
			e.tracker.RecordSuccess(canonicalID, binding.Provider, latency)
			outcome.Attempts = append(outcome.Attempts, attempt)
			outcome.Success = true
			outcome.Provider = binding.Provider
			outcome.NativeID = binding.NativeID
			outcome.Response = response
			return outcome
		}

		kind := Classify(err)
		attempt.Kind = kind
		attempt.StatusCode = providers.StatusCode(err)
		attempt.Error = truncateError(err)
		outcome.Attempts = append(outcome.Attempts, attempt)
		outcome.Kind = kind
		outcome.LastError = err

		if recordsFailure(ctx, kind) {
			e.tracker.RecordFailure(canonicalID, binding.Provider)
		}

		e.logger.Warn("provider attempt failed",
			"model", canonicalID,
			"provider", binding.Provider,
			"kind", kind,
			"status", attempt.StatusCode,
			"latency", latency,
		)

		if !retryable(kind) {
			break
		}
		if i == len(plan)-1 {
			break
		}
	}

	return outcome
}

// truncateError bounds an error message for the attempts list.
func truncateError(err error) string {
	const maxLen = 512
	msg := err.Error()
	if len(msg) > maxLen {
		return msg[:maxLen] + "..."
	}
	return msg
}
