package tokens

import "mercator-hq/meridian/pkg/providers"

// Estimator estimates token counts for text and messages.
// Implementations may use different algorithms (character ratios, BPE).
type Estimator interface {
	// EstimateText estimates tokens for a single text string.
	EstimateText(text, model string) int

	// EstimateMessages estimates prompt tokens for a message list,
	// including per-message formatting overhead.
	EstimateMessages(messages []providers.Message, model string) int
}

// messageOverhead approximates the per-message formatting tokens
// (role markers and separators) OpenAI-shaped chat templates add.
const messageOverhead = 4
