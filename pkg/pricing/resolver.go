package pricing

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// nativeKey indexes a (provider, native id) pricing record.
type nativeKey struct {
	provider string
	native   string
}

// snapshot is an immutable view of all loaded pricing records.
// Lookups read it through an atomic pointer without locking.
type snapshot struct {
	dbByCanonical map[string]Record
	dbByNative    map[nativeKey]Record

	manualByCanonical map[string]Record
	manualByNative    map[nativeKey]Record

	loadedAt time.Time
}

// Resolver maps (canonical id, provider, native id) tuples to per-token
// prices with a fixed precedence: persistent table, catalog binding,
// manual override, then free/unknown fallback.
type Resolver struct {
	store    Store
	bindings BindingSource
	logger   *slog.Logger

	// refreshMu serializes snapshot rebuilds; readers never take it.
	refreshMu sync.Mutex
	current   atomic.Pointer[snapshot]

	// manual holds the override records as loaded from configuration.
	// Guarded by refreshMu.
	manual []Record
}

// NewResolver creates a resolver. store may be nil (no persistent pricing
// table); bindings may be nil (no catalog pricing).
func NewResolver(store Store, bindings BindingSource) *Resolver {
	r := &Resolver{
		store:    store,
		bindings: bindings,
		logger:   slog.Default().With("component", "pricing.resolver"),
	}
	r.current.Store(buildSnapshot(nil, nil, time.Time{}))
	return r
}

// Refresh reloads persistent pricing records and rebuilds the snapshot.
// Safe to call concurrently with lookups.
func (r *Resolver) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	var records []Record
	if r.store != nil {
		var err error
		records, err = r.store.ListModelPricing(ctx)
		if err != nil {
			return err
		}
	}

	snap := buildSnapshot(records, r.manual, time.Now())
	r.current.Store(snap)

	r.logger.Debug("pricing snapshot refreshed",
		"database_records", len(records),
		"manual_records", len(r.manual),
	)
	return nil
}

// SetManualOverrides replaces the manual-override records and rebuilds the
// snapshot from the already-loaded database records.
func (r *Resolver) SetManualOverrides(records []Record) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	r.manual = append([]Record(nil), records...)

	old := r.current.Load()
	snap := &snapshot{
		dbByCanonical: old.dbByCanonical,
		dbByNative:    old.dbByNative,
		loadedAt:      time.Now(),
	}
	indexManual(snap, r.manual)
	r.current.Store(snap)

	r.logger.Info("manual pricing overrides loaded", "records", len(records))
}

// Resolve returns the price for one request. Resolution order:
//
//  1. persistent model_pricing table (by canonical id, then native id)
//  2. catalog-derived pricing on the registry binding
//  3. manual overrides (by canonical id, then native id)
//  4. fallback: SourceFree when a matched record prices everything at
//     zero; SourceUnknown (null prices) when nothing matched at all
func (r *Resolver) Resolve(canonicalID, provider, nativeID string) Quote {
	snap := r.current.Load()
	nk := nativeKey{provider: strings.ToLower(provider), native: strings.ToLower(nativeID)}

	if rec, ok := snap.dbByCanonical[strings.ToLower(canonicalID)]; ok {
		return quoteFrom(rec, SourceDatabase)
	}
	if rec, ok := snap.dbByNative[nk]; ok {
		return quoteFrom(rec, SourceDatabase)
	}

	if r.bindings != nil {
		if model, ok := r.bindings.Get(canonicalID); ok {
			if b, ok := model.Binding(provider); ok && b.InputCost != nil && b.OutputCost != nil {
				rec := Record{InputPrice: *b.InputCost, OutputPrice: *b.OutputCost}
				return quoteFrom(rec, SourceCatalog)
			}
		}
	}

	if rec, ok := snap.manualByCanonical[strings.ToLower(canonicalID)]; ok {
		return quoteFrom(rec, SourceManual)
	}
	if rec, ok := snap.manualByNative[nk]; ok {
		return quoteFrom(rec, SourceManual)
	}

	return Quote{Source: SourceUnknown}
}

// quoteFrom builds a quote, downgrading explicit zero pricing to
// SourceFree so free models are distinguishable from unresolved ones.
func quoteFrom(rec Record, source Source) Quote {
	if rec.free() {
		return Quote{Source: SourceFree}
	}
	return Quote{
		InputPrice:  rec.InputPrice,
		OutputPrice: rec.OutputPrice,
		Source:      source,
	}
}

// buildSnapshot indexes records into a fresh snapshot.
func buildSnapshot(db, manual []Record, loadedAt time.Time) *snapshot {
	snap := &snapshot{
		dbByCanonical: make(map[string]Record, len(db)),
		dbByNative:    make(map[nativeKey]Record, len(db)),
		loadedAt:      loadedAt,
	}
	for _, rec := range db {
		if rec.CanonicalID != "" {
			snap.dbByCanonical[strings.ToLower(rec.CanonicalID)] = rec
		}
		if rec.Provider != "" && rec.NativeID != "" {
			snap.dbByNative[nativeKey{
				provider: strings.ToLower(rec.Provider),
				native:   strings.ToLower(rec.NativeID),
			}] = rec
		}
	}
	indexManual(snap, manual)
	return snap
}

// indexManual indexes manual-override records into a snapshot.
func indexManual(snap *snapshot, manual []Record) {
	snap.manualByCanonical = make(map[string]Record, len(manual))
	snap.manualByNative = make(map[nativeKey]Record, len(manual))
	for _, rec := range manual {
		if rec.CanonicalID != "" {
			snap.manualByCanonical[strings.ToLower(rec.CanonicalID)] = rec
		}
		if rec.Provider != "" && rec.NativeID != "" {
			snap.manualByNative[nativeKey{
				provider: strings.ToLower(rec.Provider),
				native:   strings.ToLower(rec.NativeID),
			}] = rec
		}
	}
}
