package catalog

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
	"mercator-hq/meridian/pkg/storage"
)

// defaultSyncedPriority orders catalog-discovered bindings behind curated
// ones, which typically declare single-digit priorities.
const defaultSyncedPriority = 100

// Ingester synchronizes provider catalogs into the registry and records
// catalog pricing into storage.
type Ingester struct {
	registry   *registry.Registry
	store      storage.Store
	normalizer Normalizer
	logger     *slog.Logger
	now        func() time.Time

	// disableMissing disables bindings whose native model disappeared
	// from the provider catalog.
	disableMissing bool

	fetchers []Fetcher
}

// IngesterOption configures an Ingester.
type IngesterOption func(*Ingester)

// WithNormalizer overrides the canonical id normalizer.
func WithNormalizer(n Normalizer) IngesterOption {
	return func(i *Ingester) { i.normalizer = n }
}

// WithDisableMissing controls whether bindings absent from the fetched
// catalog are disabled.
func WithDisableMissing(disable bool) IngesterOption {
	return func(i *Ingester) { i.disableMissing = disable }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) IngesterOption {
	return func(i *Ingester) { i.now = now }
}

// NewIngester creates an ingester. Store may be nil when catalog pricing
// should not be persisted.
func NewIngester(reg *registry.Registry, store storage.Store, opts ...IngesterOption) *Ingester {
	i := &Ingester{
		registry:       reg,
		store:          store,
		normalizer:     NewDefaultNormalizer(),
		logger:         slog.Default().With("component", "catalog.ingester"),
		now:            time.Now,
		disableMissing: true,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// AddFetcher registers a provider fetcher for SyncAll.
func (i *Ingester) AddFetcher(f Fetcher) {
	i.fetchers = append(i.fetchers, f)
}

// Sync runs one synchronization pass for a single provider.
func (i *Ingester) Sync(ctx context.Context, fetcher Fetcher) SyncReport {
	provider := fetcher.Provider()
	start := i.now()
	report := SyncReport{Provider: provider}

	entries, err := fetcher.Fetch(ctx)
	if err != nil {
		report.Err = err
		report.Duration = i.now().Sub(start)
		i.logger.Error("catalog fetch failed", "provider", provider, "error", err)
		return report
	}
	report.Fetched = len(entries)

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		canonical := i.normalizer.Canonicalize(provider, entry.NativeID)
		if canonical == "" {
			report.Skipped++
			continue
		}
		seen[strings.ToLower(entry.NativeID)] = true

		_, existed := i.registry.Get(canonical)

		binding := registry.ProviderBinding{
			Provider:        provider,
			NativeID:        entry.NativeID,
			Priority:        i.bindingPriority(canonical, provider),
			Enabled:         true,
			InputCost:       entry.InputPrice,
			OutputCost:      entry.OutputPrice,
			MaxOutputTokens: entry.MaxOutputTokens,
			ContextLength:   entry.ContextLength,
			Features:        toFeatures(entry.Features),
		}

		model := registry.CanonicalModel{
			ID:            canonical,
			Name:          entry.Name,
			ContextLength: entry.ContextLength,
			Bindings:      []registry.ProviderBinding{binding},
		}
		if err := i.registry.Register(model); err != nil {
			report.Skipped++
			i.logger.Warn("failed to register synced model",
				"provider", provider,
				"native_id", entry.NativeID,
				"error", err,
			)
			continue
		}

		if existed {
			report.Updated++
		} else {
			report.Added++
		}

		i.persistPricing(ctx, canonical, provider, entry)
	}

	if i.disableMissing {
		report.Disabled = i.disableVanished(provider, seen)
	}

	report.Duration = i.now().Sub(start)
	i.logger.Info("catalog sync completed",
		"provider", provider,
		"fetched", report.Fetched,
		"added", report.Added,
		"updated", report.Updated,
		"disabled", report.Disabled,
		"skipped", report.Skipped,
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report
}

// SyncAll runs Sync for every registered fetcher. A failing provider does
// not stop the pass; its error lands in the per-provider report.
func (i *Ingester) SyncAll(ctx context.Context) CombinedReport {
	combined := CombinedReport{Started: i.now()}
	for _, fetcher := range i.fetchers {
		combined.Reports = append(combined.Reports, i.Sync(ctx, fetcher))
	}
	combined.Finished = i.now()
	return combined
}

// bindingPriority keeps an existing binding's priority across syncs so a
// curated priority survives catalog refreshes.
func (i *Ingester) bindingPriority(canonical, provider string) int {
	if model, ok := i.registry.Get(canonical); ok {
		if binding, ok := model.Binding(provider); ok {
			return binding.Priority
		}
	}
	return defaultSyncedPriority
}

// persistPricing records catalog pricing into storage, when both the
// store and the prices are present.
func (i *Ingester) persistPricing(ctx context.Context, canonical, provider string, entry Entry) {
	if i.store == nil || entry.InputPrice == nil || entry.OutputPrice == nil {
		return
	}
	rec := pricing.Record{
		CanonicalID: canonical,
		Provider:    provider,
		NativeID:    entry.NativeID,
		InputPrice:  *entry.InputPrice,
		OutputPrice: *entry.OutputPrice,
		Source:      pricing.SourceCatalog,
		UpdatedAt:   i.now(),
	}
	if err := i.store.UpsertModelPricing(ctx, rec); err != nil {
		i.logger.Warn("failed to persist catalog pricing",
			"canonical_id", canonical,
			"provider", provider,
			"error", err,
		)
	}
}

// disableVanished disables this provider's bindings whose native id was
// not present in the fetched catalog. Disabled bindings stay in the
// registry so history and pricing remain resolvable.
func (i *Ingester) disableVanished(provider string, seen map[string]bool) int {
	disabled := 0
	for _, model := range i.registry.ListByProvider(provider) {
		binding, ok := model.Binding(provider)
		if !ok || !binding.Enabled {
			continue
		}
		if seen[strings.ToLower(binding.NativeID)] {
			continue
		}
		if err := i.registry.SetBindingEnabled(model.ID, provider, false); err != nil {
			continue
		}
		disabled++
		i.logger.Warn("binding disabled, native model vanished from catalog",
			"canonical_id", model.ID,
			"provider", provider,
			"native_id", binding.NativeID,
		)
	}
	return disabled
}

// toFeatures converts catalog feature strings, deduplicated and sorted.
func toFeatures(features []string) []registry.Feature {
	if len(features) == 0 {
		return nil
	}
	set := make(map[registry.Feature]bool, len(features))
	for _, f := range features {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			set[registry.Feature(f)] = true
		}
	}
	out := make([]registry.Feature, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}
