package pricing

import (
	"context"
	"time"

	"mercator-hq/meridian/pkg/registry"
)

// Source tags where a resolved price came from.
type Source string

const (
	// SourceDatabase marks prices from the persistent model_pricing table.
	SourceDatabase Source = "database"

	// SourceCatalog marks prices carried on a registry binding by catalog
	// ingest.
	SourceCatalog Source = "catalog"

	// SourceManual marks prices from the manual-override configuration.
	SourceManual Source = "manual"

	// SourceFree marks a model explicitly priced at zero.
	SourceFree Source = "free"

	// SourceUnknown means no price could be resolved. Costs are null;
	// the caller decides whether to fail or continue.
	SourceUnknown Source = "unknown"
)

// Record is one stored pricing entry. Prices are USD per token.
// A record is keyed either by canonical id or by (provider, native id);
// both key forms may be present.
type Record struct {
	// CanonicalID is the canonical model id, if the record is keyed by it.
	CanonicalID string

	// Provider and NativeID key the record by provider-native id.
	Provider string
	NativeID string

	// InputPrice and OutputPrice are USD per token.
	InputPrice  float64
	OutputPrice float64

	// Source tags the record's origin.
	Source Source

	// UpdatedAt is the last modification time.
	UpdatedAt time.Time
}

// free reports whether the record prices the model at zero.
func (r *Record) free() bool {
	return r.InputPrice == 0 && r.OutputPrice == 0
}

// Quote is a resolved price for one request.
type Quote struct {
	// InputPrice and OutputPrice are USD per token. Zero when Source is
	// SourceFree or SourceUnknown.
	InputPrice  float64
	OutputPrice float64

	// Source tags where the price came from.
	Source Source
}

// Known reports whether the quote carries usable pricing (including an
// explicit free price).
func (q Quote) Known() bool {
	return q.Source != SourceUnknown
}

// Store is the persistence the resolver reads pricing records from.
// *storage.SQLiteStore and *storage.MemoryStore satisfy it.
type Store interface {
	ListModelPricing(ctx context.Context) ([]Record, error)
}

// BindingSource supplies catalog-derived binding pricing.
// *registry.Registry satisfies it.
type BindingSource interface {
	Get(canonicalID string) (registry.CanonicalModel, bool)
}
