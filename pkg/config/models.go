package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelsFile is the curated canonical model file. It declares the models
// the operator wants exposed, their provider bindings, and their pricing.
type ModelsFile struct {
	Models []ModelSpec `yaml:"models"`
}

// ModelSpec declares one canonical model.
type ModelSpec struct {
	// ID is the canonical model identifier, e.g. "gpt-4o".
	ID string `yaml:"id"`

	// Name is the human-readable display name.
	Name string `yaml:"name"`

	// Description is optional prose.
	Description string `yaml:"description"`

	// Category groups models, e.g. "chat", "embedding".
	Category string `yaml:"category"`

	// ContextLength is the maximum context window in tokens.
	ContextLength int `yaml:"context_length"`

	// Modalities lists supported modalities, e.g. ["text"].
	Modalities []string `yaml:"modalities"`

	// Aliases are alternative identifiers resolving to this model.
	Aliases []string `yaml:"aliases"`

	// Bindings map the model onto concrete providers.
	Bindings []BindingSpec `yaml:"bindings"`
}

// BindingSpec declares one provider binding for a canonical model.
type BindingSpec struct {
	// Provider is the provider slug, matching a key in the providers map.
	Provider string `yaml:"provider"`

	// NativeID is the provider's own identifier for the model.
	NativeID string `yaml:"native_id"`

	// Priority orders bindings; lower is preferred.
	Priority int `yaml:"priority"`

	// Enabled gates the binding.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// RequiresCredentials marks bindings that need upstream credentials.
	RequiresCredentials bool `yaml:"requires_credentials"`

	// InputPrice and OutputPrice are per-token USD prices after Unit
	// normalization. Omitted prices mean unknown.
	InputPrice  *float64 `yaml:"input_price"`
	OutputPrice *float64 `yaml:"output_price"`

	// Unit declares the price denomination: "per_token", "per_1k", or
	// "per_1m".
	// Default: "per_token"
	Unit string `yaml:"unit"`

	// MaxOutputTokens caps completion length for this binding.
	MaxOutputTokens *int `yaml:"max_output_tokens"`

	// ContextLength overrides the model context window for this binding.
	ContextLength int `yaml:"context_length"`

	// Features lists binding capabilities, e.g. ["streaming", "tools"].
	Features []string `yaml:"features"`
}

// IsEnabled reports whether the binding is enabled, defaulting to true.
func (b BindingSpec) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// LoadModelsFile reads and validates a curated models file.
func LoadModelsFile(path string) (*ModelsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read models file %q: %w", path, err)
	}

	var file ModelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file %q: %w", path, err)
	}

	if err := validateModelsFile(&file); err != nil {
		return nil, fmt.Errorf("models file %q: %w", path, err)
	}

	return &file, nil
}

func validateModelsFile(file *ModelsFile) error {
	seen := make(map[string]bool, len(file.Models))
	for _, model := range file.Models {
		id := strings.ToLower(strings.TrimSpace(model.ID))
		if id == "" {
			return fmt.Errorf("model id must not be empty")
		}
		if seen[id] {
			return fmt.Errorf("duplicate model id %q", model.ID)
		}
		seen[id] = true

		for _, binding := range model.Bindings {
			if binding.Provider == "" {
				return fmt.Errorf("model %q: binding provider must not be empty", model.ID)
			}
			if binding.NativeID == "" {
				return fmt.Errorf("model %q: binding for %q has no native_id", model.ID, binding.Provider)
			}
			switch binding.Unit {
			case "", "per_token", "per_1k", "per_1m":
			default:
				return fmt.Errorf("model %q: binding for %q has unknown unit %q", model.ID, binding.Provider, binding.Unit)
			}
		}
	}
	return nil
}

// OverridesFile is the manual pricing override file. Entries here fill in
// pricing for models the database and catalog never priced.
type OverridesFile struct {
	Overrides []PricingOverride `yaml:"overrides"`
}

// PricingOverride pins pricing for one canonical model or one specific
// (provider, native_id) pair. Provider and NativeID may be empty to match
// the canonical model across providers.
type PricingOverride struct {
	CanonicalID string `yaml:"canonical_id"`
	Provider    string `yaml:"provider"`
	NativeID    string `yaml:"native_id"`

	// InputPrice and OutputPrice are USD prices in the declared Unit.
	InputPrice  float64 `yaml:"input_price"`
	OutputPrice float64 `yaml:"output_price"`

	// Unit declares the price denomination.
	// Default: "per_token"
	Unit string `yaml:"unit"`
}

// LoadOverridesFile reads and validates a manual pricing override file.
func LoadOverridesFile(path string) (*OverridesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing overrides file %q: %w", path, err)
	}

	var file OverridesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing overrides file %q: %w", path, err)
	}

	for i, override := range file.Overrides {
		if override.CanonicalID == "" && (override.Provider == "" || override.NativeID == "") {
			return nil, fmt.Errorf("pricing overrides file %q: entry %d needs canonical_id or provider+native_id", path, i)
		}
		switch override.Unit {
		case "", "per_token", "per_1k", "per_1m":
		default:
			return nil, fmt.Errorf("pricing overrides file %q: entry %d has unknown unit %q", path, i, override.Unit)
		}
	}

	return &file, nil
}
