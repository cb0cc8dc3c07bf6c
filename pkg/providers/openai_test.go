package providers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	mock "mercator-hq/meridian/internal/providers"
	"mercator-hq/meridian/pkg/providers"
)

func TestNewOpenAIAdapterValidation(t *testing.T) {
	tests := []struct {
		name   string
		config providers.AdapterConfig
	}{
		{"missing slug", providers.AdapterConfig{BaseURL: "https://api.example.com"}},
		{"missing base url", providers.AdapterConfig{Slug: "openrouter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := providers.NewOpenAIAdapter(tt.config)
			var cfgErr *providers.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error = %v, want *ConfigError", err)
			}
		})
	}
}

func TestCompleteSuccess(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.MockCompletionResponse("Hello there!", "gpt-4o-2024-08-06"),
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	resp, err := adapter.Complete(context.Background(), "gpt-4o-2024-08-06",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))
	mock.AssertNoError(t, err)

	if resp.Content != "Hello there!" {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "gpt-4o-2024-08-06" {
		t.Errorf("Model = %q", resp.Model)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("FinishReason = %q", resp.FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 30 {
		t.Errorf("Usage = %+v, want total 30", resp.Usage)
	}
}

func TestCompleteOmittedUsage(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.MockCompletionResponseNoUsage("hi", "llama-3.3-70b"),
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("fireworks", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	resp, err := adapter.Complete(context.Background(), "llama-3.3-70b",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))
	mock.AssertNoError(t, err)

	if resp.Usage != nil {
		t.Errorf("Usage = %+v, want nil when the provider omits accounting", resp.Usage)
	}
}

func TestCompleteErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		response mock.MockResponse
		check    func(t *testing.T, err error)
	}{
		{
			name:     "auth error",
			response: mock.MockAuthError(),
			check: func(t *testing.T, err error) {
				var authErr *providers.AuthError
				if !errors.As(err, &authErr) {
					t.Fatalf("error = %T, want *AuthError", err)
				}
				if authErr.StatusCode != 401 {
					t.Errorf("StatusCode = %d", authErr.StatusCode)
				}
			},
		},
		{
			name:     "rate limit with retry-after",
			response: mock.MockRateLimitError(30),
			check: func(t *testing.T, err error) {
				var rlErr *providers.RateLimitError
				if !errors.As(err, &rlErr) {
					t.Fatalf("error = %T, want *RateLimitError", err)
				}
				if rlErr.RetryAfter != 30*time.Second {
					t.Errorf("RetryAfter = %s, want 30s", rlErr.RetryAfter)
				}
			},
		},
		{
			name:     "model not found",
			response: mock.MockErrorResponse(http.StatusNotFound, "no such model"),
			check: func(t *testing.T, err error) {
				var nfErr *providers.ModelNotFoundError
				if !errors.As(err, &nfErr) {
					t.Fatalf("error = %T, want *ModelNotFoundError", err)
				}
				if nfErr.NativeID != "gpt-4o" {
					t.Errorf("NativeID = %q", nfErr.NativeID)
				}
			},
		},
		{
			name:     "server error",
			response: mock.MockServerError(),
			check: func(t *testing.T, err error) {
				var provErr *providers.ProviderError
				if !errors.As(err, &provErr) {
					t.Fatalf("error = %T, want *ProviderError", err)
				}
				if provErr.StatusCode != 500 {
					t.Errorf("StatusCode = %d", provErr.StatusCode)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mock.NewMockServer()
			defer server.Close()
			server.SetResponse("/chat/completions", tt.response)

			adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
			mock.AssertNoError(t, err)
			defer adapter.Close()

			_, err = adapter.Complete(context.Background(), "gpt-4o",
				mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))
			mock.AssertError(t, err)
			tt.check(t, err)
		})
	}
}

func TestCompleteSingleAttempt(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockServerError())

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	_, err = adapter.Complete(context.Background(), "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))
	mock.AssertError(t, err)

	// The adapter never retries; failover owns retry policy.
	if got := server.RequestCount(); got != 1 {
		t.Errorf("upstream called %d times, want 1", got)
	}
}

func TestCompleteMalformedResponse(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       "<html>proxy error</html>",
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	_, err = adapter.Complete(context.Background(), "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %T, want *ParseError", err)
	}
}

func TestCompleteNoChoices(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       map[string]interface{}{"id": "x", "choices": []interface{}{}},
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	_, err = adapter.Complete(context.Background(), "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))

	var parseErr *providers.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %T, want *ParseError", err)
	}
}

func TestCompleteCancellation(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StatusCode: http.StatusOK,
		Body:       mock.MockCompletionResponse("late", "gpt-4o"),
		Delay:      500 * time.Millisecond,
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err = adapter.Complete(ctx, "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))

	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestStreamSuccess(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{
			mock.MockStreamChunk("Hel", ""),
			mock.MockStreamChunk("lo ", ""),
			mock.MockStreamChunk("world", "stop"),
			mock.MockUsageChunk(12, 3),
		},
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	stream, err := adapter.Stream(context.Background(), "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))
	mock.AssertNoError(t, err)

	chunks, streamErr := mock.CollectStreamChunks(t, stream)
	mock.AssertNoError(t, streamErr)

	if got := mock.ConcatenateChunks(chunks); got != "Hello world" {
		t.Errorf("content = %q, want %q", got, "Hello world")
	}

	var usage *providers.TokenUsage
	var finish string
	for _, chunk := range chunks {
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.FinishReason != "" {
			finish = chunk.FinishReason
		}
	}
	if finish != "stop" {
		t.Errorf("finish reason = %q, want stop", finish)
	}
	if usage == nil || usage.PromptTokens != 12 || usage.CompletionTokens != 3 {
		t.Errorf("usage = %+v, want 12/3", usage)
	}
}

func TestStreamEstablishmentFailure(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockAuthError())

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	_, err = adapter.Stream(context.Background(), "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))

	var authErr *providers.AuthError
	if !errors.As(err, &authErr) {
		t.Errorf("error = %T, want *AuthError for failed establishment", err)
	}
}

func TestStreamMalformedChunk(t *testing.T) {
	server := mock.NewMockServer()
	defer server.Close()
	server.SetResponse("/chat/completions", mock.MockResponse{
		StreamChunks: []string{
			mock.MockStreamChunk("ok", ""),
			"{not valid json",
		},
	})

	adapter, err := providers.NewOpenAIAdapter(mock.TestAdapterConfig("openai", server.URL()))
	mock.AssertNoError(t, err)
	defer adapter.Close()

	stream, err := adapter.Stream(context.Background(), "gpt-4o",
		mock.TestCompletionRequest(mock.TestMessage("user", "Hi")))
	mock.AssertNoError(t, err)

	chunks, streamErr := mock.CollectStreamChunks(t, stream)
	mock.AssertError(t, streamErr)

	var parseErr *providers.ParseError
	if !errors.As(streamErr, &parseErr) {
		t.Errorf("stream error = %T, want *ParseError", streamErr)
	}
	if len(chunks) != 1 {
		t.Errorf("got %d chunks before the error, want 1", len(chunks))
	}
}

func TestStatusCodeExtraction(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"provider error", &providers.ProviderError{StatusCode: 503}, 503},
		{"auth error", &providers.AuthError{StatusCode: 403}, 403},
		{"rate limit", &providers.RateLimitError{}, 429},
		{"model not found", &providers.ModelNotFoundError{}, 404},
		{"plain error", errors.New("dial tcp: refused"), 0},
		{"parse error", &providers.ParseError{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := providers.StatusCode(tt.err); got != tt.want {
				t.Errorf("StatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
