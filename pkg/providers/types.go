package providers

// Message represents a single message in a conversation.
// It follows the OpenAI chat format and is forwarded to upstream
// providers as-is (the fleet is OpenAI-compatible).
type Message struct {
	// Role identifies the message sender (system, user, assistant, tool)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`

	// Name is an optional name for the message sender
	Name string `json:"name,omitempty"`

	// ToolCalls contains function/tool calls made by the assistant
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// ToolCallID references the tool call this message responds to
	// (only for role "tool")
	ToolCallID string `json:"tool_call_id,omitempty"`
}

// ToolCall represents a function/tool call request from the model.
type ToolCall struct {
	// ID is a unique identifier for this tool call
	ID string `json:"id"`

	// Type is the type of tool call (currently always "function")
	Type string `json:"type"`

	// Function contains the function name and arguments
	Function FunctionCall `json:"function"`
}

// FunctionCall represents a specific function invocation.
type FunctionCall struct {
	// Name is the function name to call
	Name string `json:"name"`

	// Arguments is a JSON string containing the function arguments
	Arguments string `json:"arguments"`
}

// Tool represents a tool/function definition that the model can call.
type Tool struct {
	// Type is the type of tool (currently always "function")
	Type string `json:"type"`

	// Function contains the function definition
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition defines a callable function.
type FunctionDefinition struct {
	// Name is the function name
	Name string `json:"name"`

	// Description explains what the function does
	Description string `json:"description,omitempty"`

	// Parameters is a JSON Schema object describing the function parameters
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// TokenUsage tracks token consumption for a request.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the prompt
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion)
	TotalTokens int `json:"total_tokens"`
}

// CompletionRequest is the provider-agnostic chat-completion request.
//
// The Model field is intentionally absent: the caller addresses models by
// canonical id, and the adapter receives the provider-native id as a
// separate argument so the same request can be replayed against multiple
// providers during failover.
type CompletionRequest struct {
	// Messages is the conversation history
	Messages []Message `json:"messages"`

	// Temperature controls randomness (0.0 to 2.0)
	Temperature float64 `json:"temperature,omitempty"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0)
	TopP float64 `json:"top_p,omitempty"`

	// Tools is a list of tools the model can call
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice controls which tools can be called.
	// Can be "none", "auto", or a {"type": "function", ...} object.
	ToolChoice interface{} `json:"tool_choice,omitempty"`

	// Stop sequences that will halt generation
	Stop []string `json:"stop,omitempty"`

	// PresencePenalty reduces repetition (-2.0 to 2.0)
	PresencePenalty float64 `json:"presence_penalty,omitempty"`

	// FrequencyPenalty reduces repetition based on frequency (-2.0 to 2.0)
	FrequencyPenalty float64 `json:"frequency_penalty,omitempty"`

	// User is an optional end-user identifier for abuse monitoring
	User string `json:"user,omitempty"`
}

// CompletionResponse is the normalized chat-completion response.
type CompletionResponse struct {
	// ID is the upstream response identifier
	ID string `json:"id"`

	// Model is the provider-native model that generated the response
	Model string `json:"model"`

	// Content is the generated text content
	Content string `json:"content"`

	// FinishReason indicates why generation stopped
	// (stop, length, tool_calls, content_filter)
	FinishReason string `json:"finish_reason"`

	// Usage contains token consumption as reported by the provider.
	// Nil when the provider omitted usage accounting.
	Usage *TokenUsage `json:"usage,omitempty"`

	// ToolCalls contains any tool/function calls made by the model
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Created is the Unix timestamp when the response was created
	Created int64 `json:"created"`
}

// StreamChunk is one incremental piece of a streaming response.
type StreamChunk struct {
	// ID is the upstream response identifier
	ID string `json:"id"`

	// Delta is the incremental text content
	Delta string `json:"delta"`

	// ToolCalls contains incremental tool call fragments
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// FinishReason is set on the final content chunk
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage is set on the trailing usage chunk when the provider emits one
	Usage *TokenUsage `json:"usage,omitempty"`

	// Err is set when the stream terminated abnormally.
	// After a chunk with Err set, the channel is closed.
	Err error `json:"-"`
}
