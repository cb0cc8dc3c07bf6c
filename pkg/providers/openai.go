package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OpenAIAdapter is an HTTP adapter for any OpenAI-compatible chat-completion
// API. OpenRouter, Fireworks, Together, DeepInfra, HuggingFace inference and
// most of the provider fleet speak this dialect; one adapter type with a
// per-provider base URL and API key covers them all.
//
// The adapter performs exactly one upstream attempt per call. Retries and
// failover across providers are owned by the failover executor, which needs
// to observe every individual failure for health accounting.
type OpenAIAdapter struct {
	config AdapterConfig
	client *http.Client
}

// NewOpenAIAdapter creates an adapter for one OpenAI-compatible provider.
func NewOpenAIAdapter(config AdapterConfig) (*OpenAIAdapter, error) {
	if config.Slug == "" {
		return nil, &ConfigError{Provider: "openai-compatible", Field: "slug", Message: "provider slug is required"}
	}
	if config.BaseURL == "" {
		return nil, &ConfigError{Provider: config.Slug, Field: "base_url", Message: "base URL is required"}
	}

	if config.CompletionPath == "" {
		config.CompletionPath = "/chat/completions"
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 20
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	transport := &http.Transport{
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	a := &OpenAIAdapter{
		config: config,
		client: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
	}

	slog.Debug("OpenAI-compatible adapter initialized",
		"provider", config.Slug,
		"base_url", config.BaseURL,
	)

	return a, nil
}

// Slug returns the provider slug this adapter serves.
func (a *OpenAIAdapter) Slug() string {
	return a.config.Slug
}

// Complete sends a non-streaming chat-completion request.
func (a *OpenAIAdapter) Complete(ctx context.Context, nativeID string, req *CompletionRequest) (*CompletionResponse, error) {
	wireReq := a.buildWireRequest(nativeID, req, false)

	body, err := a.doRequest(ctx, wireReq)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &ParseError{
			Provider: a.config.Slug,
			Cause:    fmt.Errorf("failed to read response: %w", err),
		}
	}

	var wireResp wireResponse
	if err := json.Unmarshal(raw, &wireResp); err != nil {
		return nil, &ParseError{
			Provider:    a.config.Slug,
			RawResponse: truncate(string(raw), 512),
			Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
		}
	}

	return transformResponse(a.config.Slug, &wireResp)
}

// Stream sends a streaming chat-completion request. The returned channel is
// closed when the stream ends; mid-stream failures are delivered as a final
// chunk with Err set.
func (a *OpenAIAdapter) Stream(ctx context.Context, nativeID string, req *CompletionRequest) (<-chan *StreamChunk, error) {
	wireReq := a.buildWireRequest(nativeID, req, true)

	body, err := a.doRequest(ctx, wireReq)
	if err != nil {
		return nil, err
	}

	out := make(chan *StreamChunk)
	go a.readStream(ctx, body, out)
	return out, nil
}

// Close releases idle connections.
func (a *OpenAIAdapter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}

// buildWireRequest maps the provider-agnostic request onto the OpenAI wire
// format with the provider-native model id.
func (a *OpenAIAdapter) buildWireRequest(nativeID string, req *CompletionRequest, stream bool) *wireRequest {
	w := &wireRequest{
		Model:            nativeID,
		Messages:         req.Messages,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             req.TopP,
		Stream:           stream,
		Tools:            req.Tools,
		ToolChoice:       req.ToolChoice,
		Stop:             req.Stop,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
		User:             req.User,
	}
	if stream {
		// Ask for the trailing usage chunk where the dialect supports it.
		w.StreamOptions = &wireStreamOptions{IncludeUsage: true}
	}
	return w
}

// doRequest performs one POST to the completion endpoint and maps non-2xx
// statuses to typed errors. The response body is returned unread so the
// caller can consume it as JSON or as an SSE stream.
func (a *OpenAIAdapter) doRequest(ctx context.Context, wireReq *wireRequest) (io.ReadCloser, error) {
	payload, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(a.config.BaseURL, "/") + a.config.CompletionPath
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if a.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}
	for key, value := range a.config.ExtraHeaders {
		httpReq.Header.Set(key, value)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		// Surface cancellation/deadline as-is so the caller can classify it.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &ProviderError{
			Provider: a.config.Slug,
			Message:  "transport failure",
			Cause:    err,
		}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.Body, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
	msg := truncate(string(errorBody), 512)

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{
			Provider:   a.config.Slug,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	case http.StatusTooManyRequests:
		return nil, &RateLimitError{
			Provider:   a.config.Slug,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    msg,
		}
	case http.StatusNotFound:
		return nil, &ModelNotFoundError{
			Provider: a.config.Slug,
			NativeID: wireReq.Model,
		}
	default:
		return nil, &ProviderError{
			Provider:   a.config.Slug,
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}
}

// parseRetryAfter parses the Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
