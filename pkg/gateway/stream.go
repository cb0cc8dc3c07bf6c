package gateway

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/meridian/pkg/failover"
	"mercator-hq/meridian/pkg/providers"
)

// ExecuteStream runs one streaming completion request.
//
// Failover covers stream establishment only: once a provider has started
// streaming, partial output may already have reached the caller, so a
// mid-stream error is surfaced as a chunk with Err set rather than retried
// against another provider. Establishment counts as the attempt's success
// for health tracking.
func (g *Gateway) ExecuteStream(ctx context.Context, model string, req *providers.CompletionRequest, opts Options) (*StreamResult, error) {
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
		return adapter.Stream(ctx, nativeID, req)
	}

	outcome := g.executor.Execute(ctx, model, run, g.failoverOptions(opts))
	if !outcome.Success {
		return nil, g.finalizeFailure(ctx, requestID, model, outcome, g.now().Sub(start))
	}

	upstream, _ := outcome.Response.(<-chan *providers.StreamChunk)
	chunks := make(chan *providers.StreamChunk)
	stream := &StreamResult{
		RequestID:   requestID,
		CanonicalID: outcome.CanonicalID,
		Provider:    outcome.Provider,
		NativeID:    outcome.NativeID,
		Chunks:      chunks,
		done:        make(chan *Result, 1),
	}

	go g.proxyStream(ctx, stream, upstream, chunks, req, outcome, start)

	g.logger.Info("stream established",
		"request_id", requestID,
		"model", outcome.CanonicalID,
		"provider", outcome.Provider,
		"attempts", len(outcome.Attempts),
	)
	return stream, nil
}

// proxyStream forwards chunks to the caller while collecting content and
// the trailing usage chunk, then finalizes accounting and persistence.
func (g *Gateway) proxyStream(
	ctx context.Context,
	stream *StreamResult,
	upstream <-chan *providers.StreamChunk,
	chunks chan<- *providers.StreamChunk,
	req *providers.CompletionRequest,
	outcome *failover.Outcome,
	start time.Time,
) {
	defer close(chunks)

	var content strings.Builder
	var usage *providers.TokenUsage
	var streamErr error

forward:
	for chunk := range upstream {
		if chunk.Err != nil {
			streamErr = chunk.Err
		}
		if chunk.Delta != "" {
			content.WriteString(chunk.Delta)
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		select {
		case chunks <- chunk:
		case <-ctx.Done():
			// The caller cancelled and may have stopped draining Chunks.
			// Stop forwarding and finalize; the upstream is drained so the
			// adapter's reader goroutine can exit.
			streamErr = ctx.Err()
			go func() {
				for range upstream {
				}
			}()
			break forward
		}
	}

	duration := g.now().Sub(start)
	result := &Result{
		RequestID:   stream.RequestID,
		CanonicalID: stream.CanonicalID,
		Provider:    stream.Provider,
		NativeID:    stream.NativeID,
		Attempts:    outcome.Attempts,
		Duration:    duration,
	}

	g.account(result, req, usage, content.String())

	status := statusCompleted
	errSummary := ""
	switch {
	case streamErr != nil && ctx.Err() != nil:
		status = statusCancelled
		errSummary = "stream cancelled by caller"
	case streamErr != nil:
		status = statusFailed
		errSummary = streamErr.Error()
	}

	g.recordMetrics(result, outcome, string(status))
	g.persist(ctx, result, outcome, status, errSummary)

	g.logger.Info("stream finished",
		"request_id", stream.RequestID,
		"model", stream.CanonicalID,
		"provider", stream.Provider,
		"status", status,
		"input_tokens", result.InputTokens,
		"output_tokens", result.OutputTokens,
		"estimated", result.EstimatedUsage,
		"duration_ms", duration.Milliseconds(),
	)

	stream.done <- result
}
