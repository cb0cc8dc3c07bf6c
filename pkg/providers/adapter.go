package providers

import (
	"context"
	"time"
)

// Adapter is the contract every upstream provider integration implements.
//
// Adapters are addressed by slug (e.g. "openrouter", "fireworks") and are
// handed the provider-native model id on every call; they never see
// canonical model ids. Implementations must respect context cancellation
// and return promptly when the context is done.
type Adapter interface {
	// Complete sends a non-streaming chat-completion request.
	// nativeID is the provider-native model identifier
	// (e.g. "accounts/fireworks/models/llama-v3p3-70b-instruct").
	//
	// Errors carry the upstream HTTP status where one exists; see errors.go
	// for the typed error set and StatusCode for extraction.
	Complete(ctx context.Context, nativeID string, req *CompletionRequest) (*CompletionResponse, error)

	// Stream sends a streaming chat-completion request and returns a channel
	// of incremental chunks. The channel is closed when the stream ends; an
	// abnormal termination is delivered as a final chunk with Err set.
	//
	// A non-nil error return means the stream could not be established at
	// all (the request never produced output); such failures are eligible
	// for failover to another provider.
	Stream(ctx context.Context, nativeID string, req *CompletionRequest) (<-chan *StreamChunk, error)

	// Slug returns the provider slug this adapter serves.
	Slug() string

	// Close releases held resources (idle connections etc.).
	Close() error
}

// AdapterConfig configures an HTTP-based adapter instance.
type AdapterConfig struct {
	// Slug is the provider slug (e.g. "openrouter", "together").
	Slug string

	// BaseURL is the provider API root (e.g. "https://openrouter.ai/api/v1").
	BaseURL string

	// APIKey authenticates requests. Optional for local providers.
	APIKey string

	// CompletionPath overrides the chat-completion endpoint path.
	// Default: "/chat/completions".
	CompletionPath string

	// Timeout bounds each upstream call. Zero means no client timeout;
	// callers are expected to pass a deadline via context.
	Timeout time.Duration

	// MaxIdleConns and MaxIdleConnsPerHost tune the connection pool.
	MaxIdleConns        int
	MaxIdleConnsPerHost int

	// ExtraHeaders are sent verbatim on every request (some aggregators
	// require attribution headers).
	ExtraHeaders map[string]string
}
