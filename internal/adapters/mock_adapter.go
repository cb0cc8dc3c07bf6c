// Package adapters provides a scriptable in-memory adapter for tests.
package adapters

import (
	"context"
	"sync"

	"mercator-hq/meridian/pkg/providers"
)

// Call records one invocation of the mock adapter.
type Call struct {
	NativeID string
	Stream   bool
}

// MockAdapter is a scriptable providers.Adapter. Responses are consumed
// in order; when the script is exhausted the last entry repeats.
type MockAdapter struct {
	slug string

	mu      sync.Mutex
	calls   []Call
	script  []result
	chunks  []*providers.StreamChunk
	elapsed int
}

type result struct {
	resp *providers.CompletionResponse
	err  error
}

// NewMockAdapter creates a mock adapter for a provider slug.
func NewMockAdapter(slug string) *MockAdapter {
	return &MockAdapter{slug: slug}
}

// Respond appends a successful completion to the script.
func (m *MockAdapter) Respond(resp *providers.CompletionResponse) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, result{resp: resp})
	return m
}

// RespondText appends a successful completion with the given content and
// usage to the script.
func (m *MockAdapter) RespondText(content string, promptTokens, completionTokens int) *MockAdapter {
	return m.Respond(&providers.CompletionResponse{
		Content:      content,
		FinishReason: "stop",
		Usage: &providers.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	})
}

// Fail appends a failure to the script.
func (m *MockAdapter) Fail(err error) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, result{err: err})
	return m
}

// StreamChunks sets the chunks returned by Stream calls.
func (m *MockAdapter) StreamChunks(chunks ...*providers.StreamChunk) *MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = chunks
	return m
}

// Calls returns every recorded invocation.
func (m *MockAdapter) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Slug returns the provider slug.
func (m *MockAdapter) Slug() string {
	return m.slug
}

// Complete consumes the next scripted result.
func (m *MockAdapter) Complete(_ context.Context, nativeID string, _ *providers.CompletionRequest) (*providers.CompletionResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{NativeID: nativeID})
	r := m.next()
	m.mu.Unlock()
	return r.resp, r.err
}

// Stream consumes the next scripted result; on success it emits the
// configured chunks and closes the channel.
func (m *MockAdapter) Stream(_ context.Context, nativeID string, _ *providers.CompletionRequest) (<-chan *providers.StreamChunk, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{NativeID: nativeID, Stream: true})
	r := m.next()
	chunks := m.chunks
	m.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}

	out := make(chan *providers.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range chunks {
			out <- chunk
		}
	}()
	return out, nil
}

// Close is a no-op.
func (m *MockAdapter) Close() error {
	return nil
}

// next returns the current script entry, advancing until the last one.
// Callers must hold m.mu. An empty script yields an empty success.
func (m *MockAdapter) next() result {
	if len(m.script) == 0 {
		return result{resp: &providers.CompletionResponse{Content: "ok", FinishReason: "stop"}}
	}
	r := m.script[m.elapsed]
	if m.elapsed < len(m.script)-1 {
		m.elapsed++
	}
	return r
}
