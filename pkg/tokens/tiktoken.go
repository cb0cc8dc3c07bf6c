package tokens

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"mercator-hq/meridian/pkg/providers"
)

// TiktokenEstimator estimates tokens with a real BPE tokenizer. Encodings
// are resolved per model family and cached; models outside the OpenAI
// vocabulary families fall back to a character-ratio estimate.
type TiktokenEstimator struct {
	fallback *SimpleEstimator
	logger   *slog.Logger

	encodings map[string]*tiktoken.Tiktoken
}

// NewTiktokenEstimator creates a BPE-backed estimator. The cl100k_base
// encoding is loaded eagerly so a broken tokenizer data path fails at
// construction rather than on the first request.
func NewTiktokenEstimator() (*TiktokenEstimator, error) {
	base, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}

	e := &TiktokenEstimator{
		fallback:  NewSimpleEstimator(),
		logger:    slog.Default().With("component", "tokens.tiktoken"),
		encodings: map[string]*tiktoken.Tiktoken{"cl100k_base": base},
	}

	// o200k_base covers the gpt-4o family; absence is tolerable because
	// cl100k_base is a close-enough approximation for accounting.
	if o200k, err := tiktoken.GetEncoding("o200k_base"); err == nil {
		e.encodings["o200k_base"] = o200k
	} else {
		e.logger.Warn("o200k_base encoding unavailable, falling back to cl100k_base", "error", err)
	}

	return e, nil
}

// EstimateText estimates tokens for a single text string.
func (e *TiktokenEstimator) EstimateText(text, model string) int {
	if text == "" {
		return 0
	}
	enc := e.encodingFor(model)
	if enc == nil {
		return e.fallback.EstimateText(text, model)
	}
	return len(enc.Encode(text, nil, nil))
}

// EstimateMessages estimates prompt tokens for a message list.
func (e *TiktokenEstimator) EstimateMessages(messages []providers.Message, model string) int {
	total := 0
	for _, msg := range messages {
		total += messageOverhead
		total += e.EstimateText(msg.Content, model)
		for _, tc := range msg.ToolCalls {
			total += e.EstimateText(tc.Function.Name, model)
			total += e.EstimateText(tc.Function.Arguments, model)
		}
	}
	return total
}

// encodingFor picks a BPE encoding for the model, or nil when the model
// family is not tokenized with an OpenAI vocabulary.
func (e *TiktokenEstimator) encodingFor(model string) *tiktoken.Tiktoken {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "gpt-4o") || strings.Contains(lower, "o1") || strings.Contains(lower, "o3"):
		if enc, ok := e.encodings["o200k_base"]; ok {
			return enc
		}
		return e.encodings["cl100k_base"]
	case strings.Contains(lower, "gpt") || strings.Contains(lower, "text-embedding"):
		return e.encodings["cl100k_base"]
	default:
		return nil
	}
}
