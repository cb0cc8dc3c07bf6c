package registry

import "time"

// Modality is an input/output modality a model supports.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
	ModalityAudio Modality = "audio"
	ModalityVideo Modality = "video"
)

// Feature is a capability flag on a model or binding.
type Feature string

const (
	FeatureStreaming       Feature = "streaming"
	FeatureFunctionCalling Feature = "function_calling"
	FeatureTools           Feature = "tools"
	FeatureVision          Feature = "vision"
	FeatureMultimodal      Feature = "multimodal"
	FeatureReasoning       Feature = "reasoning"
	FeatureJSONMode        Feature = "json_mode"
)

// ProviderBinding is one provider's implementation of a canonical model.
type ProviderBinding struct {
	// Provider is the provider slug (e.g. "fireworks").
	Provider string `yaml:"provider" json:"provider"`

	// NativeID is the provider-native model identifier
	// (e.g. "accounts/fireworks/models/llama-v3p3-70b-instruct").
	NativeID string `yaml:"native_id" json:"native_id"`

	// Priority orders bindings within a canonical model.
	// Lower values are tried first.
	Priority int `yaml:"priority" json:"priority"`

	// Enabled gates the binding out of provider selection without
	// removing it from the registry.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// RequiresCredentials marks bindings that need a configured API key.
	RequiresCredentials bool `yaml:"requires_credentials" json:"requires_credentials"`

	// InputCost and OutputCost are per-token prices in USD.
	// Nil means pricing is unknown for this binding.
	InputCost  *float64 `yaml:"input_cost" json:"input_cost,omitempty"`
	OutputCost *float64 `yaml:"output_cost" json:"output_cost,omitempty"`

	// MaxOutputTokens is the provider's completion-length cap, if known.
	MaxOutputTokens *int `yaml:"max_output_tokens" json:"max_output_tokens,omitempty"`

	// ContextLength is the provider's context window for this model, if known.
	ContextLength int `yaml:"context_length" json:"context_length,omitempty"`

	// Features are the capabilities this provider supports for the model.
	Features []Feature `yaml:"features" json:"features,omitempty"`
}

// HasFeature reports whether the binding supports a feature.
func (b *ProviderBinding) HasFeature(f Feature) bool {
	for _, have := range b.Features {
		if have == f {
			return true
		}
	}
	return false
}

// HasFeatures reports whether the binding supports every listed feature.
func (b *ProviderBinding) HasFeatures(fs []Feature) bool {
	for _, f := range fs {
		if !b.HasFeature(f) {
			return false
		}
	}
	return true
}

// hasPricing reports whether both per-token prices are known.
func (b *ProviderBinding) hasPricing() bool {
	return b.InputCost != nil && b.OutputCost != nil
}

// PriceRange is the aggregated per-token pricing across a model's bindings.
// All values are USD per token. Known is false when no binding carries
// pricing.
type PriceRange struct {
	MinInput  float64 `json:"min_input"`
	MaxInput  float64 `json:"max_input"`
	MinOutput float64 `json:"min_output"`
	MaxOutput float64 `json:"max_output"`
	Known     bool    `json:"known"`
}

// CanonicalModel is the logical, provider-agnostic identity of a model.
//
// Bindings are owned by value and kept sorted by ascending priority; the
// aggregate fields (ContextLength, Pricing) are recomputed on every
// registration.
type CanonicalModel struct {
	// ID is the canonical identifier (e.g. "llama-3.3-70b").
	ID string `yaml:"id" json:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name" json:"name"`

	// Description is free-form descriptive text.
	Description string `yaml:"description" json:"description,omitempty"`

	// Category groups models for search ("chat", "code", "embedding", ...).
	Category string `yaml:"category" json:"category,omitempty"`

	// ContextLength is the largest context window across bindings.
	ContextLength int `yaml:"context_length" json:"context_length,omitempty"`

	// Modalities are the supported input/output modalities.
	Modalities []Modality `yaml:"modalities" json:"modalities,omitempty"`

	// Features is the union of binding features.
	Features []Feature `yaml:"features" json:"features,omitempty"`

	// Pricing is the min/max per-token price range over bindings with
	// known pricing.
	Pricing PriceRange `yaml:"-" json:"pricing"`

	// Bindings are the provider implementations, sorted by priority.
	Bindings []ProviderBinding `yaml:"bindings" json:"bindings"`

	// Aliases are additional identifiers declared for this model.
	// Composite and native aliases are derived automatically and need
	// not be listed.
	Aliases []string `yaml:"aliases" json:"aliases,omitempty"`

	// UpdatedAt is the last registration time.
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

// Binding returns the binding for a provider slug, if present.
func (m *CanonicalModel) Binding(provider string) (ProviderBinding, bool) {
	for _, b := range m.Bindings {
		if b.Provider == provider {
			return b, true
		}
	}
	return ProviderBinding{}, false
}

// Stats summarizes registry contents.
type Stats struct {
	// Models is the number of canonical models.
	Models int

	// Bindings is the total binding count across models.
	Bindings int

	// Aliases is the number of alias index entries.
	Aliases int

	// BindingsByProvider counts bindings per provider slug.
	BindingsByProvider map[string]int
}

// SearchFilter narrows Search results. Zero-valued fields do not filter.
type SearchFilter struct {
	// Query matches case-insensitively against id, name, and description.
	Query string

	// Category requires an exact category match.
	Category string

	// Feature requires the model to carry the feature.
	Feature Feature

	// Modality requires the model to support the modality.
	Modality Modality

	// Provider requires at least one binding from the provider.
	Provider string
}
