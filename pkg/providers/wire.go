package providers

import "fmt"

// OpenAI wire format. The agnostic types in types.go already use OpenAI
// field shapes for messages and tools, so the wire structs reuse them
// directly and only add the envelope fields.

// wireRequest is an OpenAI chat-completion request body.
type wireRequest struct {
	Model            string             `json:"model"`
	Messages         []Message          `json:"messages"`
	Temperature      float64            `json:"temperature,omitempty"`
	MaxTokens        int                `json:"max_tokens,omitempty"`
	TopP             float64            `json:"top_p,omitempty"`
	Stream           bool               `json:"stream,omitempty"`
	StreamOptions    *wireStreamOptions `json:"stream_options,omitempty"`
	Tools            []Tool             `json:"tools,omitempty"`
	ToolChoice       interface{}        `json:"tool_choice,omitempty"`
	Stop             []string           `json:"stop,omitempty"`
	PresencePenalty  float64            `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64            `json:"frequency_penalty,omitempty"`
	User             string             `json:"user,omitempty"`
}

// wireStreamOptions requests the trailing usage chunk on streams.
type wireStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// wireResponse is an OpenAI chat-completion response body.
type wireResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   *TokenUsage  `json:"usage,omitempty"`
}

// wireChoice is one completion choice.
type wireChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// wireStreamResponse is one SSE data payload of a streaming response.
type wireStreamResponse struct {
	ID      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []wireStreamChoice `json:"choices"`
	Usage   *TokenUsage        `json:"usage,omitempty"`
}

// wireStreamChoice is one choice within a stream chunk.
type wireStreamChoice struct {
	Index        int             `json:"index"`
	Delta        wireStreamDelta `json:"delta"`
	FinishReason string          `json:"finish_reason,omitempty"`
}

// wireStreamDelta is the incremental content of a stream chunk.
type wireStreamDelta struct {
	Role      string     `json:"role,omitempty"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// transformResponse normalizes a wire response.
func transformResponse(provider string, resp *wireResponse) (*CompletionResponse, error) {
	if len(resp.Choices) == 0 {
		return nil, &ParseError{
			Provider: provider,
			Cause:    fmt.Errorf("response contains no choices"),
		}
	}

	choice := resp.Choices[0]
	return &CompletionResponse{
		ID:           resp.ID,
		Model:        resp.Model,
		Content:      choice.Message.Content,
		FinishReason: choice.FinishReason,
		Usage:        resp.Usage,
		ToolCalls:    choice.Message.ToolCalls,
		Created:      resp.Created,
	}, nil
}

// transformStreamChunk normalizes one SSE payload.
// Usage-only chunks (empty choices) are valid and carry the final accounting.
func transformStreamChunk(resp *wireStreamResponse) *StreamChunk {
	chunk := &StreamChunk{
		ID:    resp.ID,
		Usage: resp.Usage,
	}
	if len(resp.Choices) > 0 {
		chunk.Delta = resp.Choices[0].Delta.Content
		chunk.ToolCalls = resp.Choices[0].Delta.ToolCalls
		chunk.FinishReason = resp.Choices[0].FinishReason
	}
	return chunk
}
