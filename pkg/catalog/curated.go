package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/meridian/pkg/config"
	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
	"mercator-hq/meridian/pkg/storage"
)

// ApplyCurated loads a curated models file into the registry and persists
// the canonical models to storage. Curated binding prices are normalized
// to per-token USD before registration, so the pricing resolver can serve
// them from the bindings.
func ApplyCurated(ctx context.Context, file *config.ModelsFile, reg *registry.Registry, store storage.Store) error {
	logger := slog.Default().With("component", "catalog.curated")

	for _, spec := range file.Models {
		model, err := curatedModel(spec)
		if err != nil {
			return err
		}
		if err := reg.Register(model); err != nil {
			return fmt.Errorf("failed to register curated model %q: %w", spec.ID, err)
		}
		for _, alias := range spec.Aliases {
			reg.AddAlias(alias, spec.ID)
		}

		if store != nil {
			if persisted, ok := reg.Get(model.ID); ok {
				if err := store.UpsertCanonicalModel(ctx, persisted); err != nil {
					logger.Warn("failed to persist curated model",
						"canonical_id", model.ID,
						"error", err,
					)
				}
			}
		}
	}

	logger.Info("curated models applied", "count", len(file.Models))
	return nil
}

// curatedModel converts a ModelSpec into a registry model.
func curatedModel(spec config.ModelSpec) (registry.CanonicalModel, error) {
	model := registry.CanonicalModel{
		ID:            spec.ID,
		Name:          spec.Name,
		Description:   spec.Description,
		Category:      spec.Category,
		ContextLength: spec.ContextLength,
		Aliases:       spec.Aliases,
	}
	for _, m := range spec.Modalities {
		model.Modalities = append(model.Modalities, registry.Modality(m))
	}

	for _, b := range spec.Bindings {
		unit, err := pricing.ParseUnit(b.Unit)
		if err != nil {
			return registry.CanonicalModel{}, fmt.Errorf("model %q binding %q: %w", spec.ID, b.Provider, err)
		}

		binding := registry.ProviderBinding{
			Provider:            b.Provider,
			NativeID:            b.NativeID,
			Priority:            b.Priority,
			Enabled:             b.IsEnabled(),
			RequiresCredentials: b.RequiresCredentials,
			MaxOutputTokens:     b.MaxOutputTokens,
			ContextLength:       b.ContextLength,
			Features:            toFeatures(b.Features),
		}
		if b.InputPrice != nil {
			normalized := pricing.Normalize(*b.InputPrice, unit)
			binding.InputCost = &normalized
		}
		if b.OutputPrice != nil {
			normalized := pricing.Normalize(*b.OutputPrice, unit)
			binding.OutputCost = &normalized
		}
		model.Bindings = append(model.Bindings, binding)
	}

	return model, nil
}

// OverrideRecords converts a manual pricing overrides file into resolver
// records, normalizing prices to per-token USD.
func OverrideRecords(file *config.OverridesFile, now time.Time) ([]pricing.Record, error) {
	records := make([]pricing.Record, 0, len(file.Overrides))
	for i, override := range file.Overrides {
		unit, err := pricing.ParseUnit(override.Unit)
		if err != nil {
			return nil, fmt.Errorf("pricing override %d: %w", i, err)
		}
		records = append(records, pricing.Record{
			CanonicalID: override.CanonicalID,
			Provider:    override.Provider,
			NativeID:    override.NativeID,
			InputPrice:  pricing.Normalize(override.InputPrice, unit),
			OutputPrice: pricing.Normalize(override.OutputPrice, unit),
			Source:      pricing.SourceManual,
			UpdatedAt:   now,
		})
	}
	return records, nil
}
