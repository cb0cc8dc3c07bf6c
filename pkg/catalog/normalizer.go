package catalog

import (
	"strings"
)

// Normalizer maps a provider's native model identifier onto a canonical
// model identifier.
type Normalizer interface {
	Canonicalize(provider, nativeID string) string
}

// DefaultNormalizer derives canonical identifiers by stripping well-known
// provider namespace prefixes and lowercasing. "openai/gpt-4o",
// "accounts/fireworks/models/gpt-4o", and "GPT-4o" all canonicalize to
// "gpt-4o".
type DefaultNormalizer struct {
	// prefixes are stripped from the front of native identifiers,
	// longest first.
	prefixes []string
}

// NewDefaultNormalizer creates a normalizer with the built-in prefix set.
func NewDefaultNormalizer() *DefaultNormalizer {
	return &DefaultNormalizer{
		prefixes: []string{
			"accounts/fireworks/models/",
			"meta-llama/",
			"mistralai/",
			"anthropic/",
			"google/",
			"openai/",
			"models/",
		},
	}
}

// Canonicalize derives the canonical identifier for a native model id.
func (n *DefaultNormalizer) Canonicalize(_ string, nativeID string) string {
	id := strings.ToLower(strings.TrimSpace(nativeID))
	for _, prefix := range n.prefixes {
		if strings.HasPrefix(id, prefix) {
			id = strings.TrimPrefix(id, prefix)
			break
		}
	}
	// Ollama-style tag suffixes ("llama3:latest") are not part of the
	// model identity.
	if idx := strings.IndexByte(id, ':'); idx > 0 {
		id = id[:idx]
	}
	return id
}

// StaticNormalizer resolves through an explicit mapping of
// "provider/native_id" to canonical id, falling back to a delegate for
// unmapped entries.
type StaticNormalizer struct {
	mapping  map[string]string
	fallback Normalizer
}

// NewStaticNormalizer creates a normalizer from an explicit mapping.
// Keys are "provider/native_id", compared case-insensitively.
func NewStaticNormalizer(mapping map[string]string, fallback Normalizer) *StaticNormalizer {
	if fallback == nil {
		fallback = NewDefaultNormalizer()
	}
	lowered := make(map[string]string, len(mapping))
	for key, canonical := range mapping {
		lowered[strings.ToLower(key)] = strings.ToLower(canonical)
	}
	return &StaticNormalizer{mapping: lowered, fallback: fallback}
}

// Canonicalize resolves the mapping, then falls back.
func (n *StaticNormalizer) Canonicalize(provider, nativeID string) string {
	key := strings.ToLower(provider + "/" + nativeID)
	if canonical, ok := n.mapping[key]; ok {
		return canonical
	}
	return n.fallback.Canonicalize(provider, nativeID)
}
