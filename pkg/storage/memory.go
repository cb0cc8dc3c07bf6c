package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
)

// MemoryStore is an in-memory Store implementation. It backs tests and
// configurations that do not want durable persistence.
type MemoryStore struct {
	mu       sync.RWMutex
	requests []RequestRecord
	prices   map[string]pricing.Record
	models   map[string]registry.CanonicalModel
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		prices: make(map[string]pricing.Record),
		models: make(map[string]registry.CanonicalModel),
	}
}

// SaveRequest persists one finalized request outcome.
func (s *MemoryStore) SaveRequest(_ context.Context, rec *RequestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, *rec)
	return nil
}

// ListRequests returns the most recent request records, newest first.
func (s *MemoryStore) ListRequests(_ context.Context, limit int) ([]RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]RequestRecord(nil), s.requests...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// UpsertModelPricing inserts or replaces one pricing record.
func (s *MemoryStore) UpsertModelPricing(_ context.Context, rec pricing.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[pricingKey(rec)] = rec
	return nil
}

// ListModelPricing returns all pricing records.
func (s *MemoryStore) ListModelPricing(_ context.Context) ([]pricing.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]pricing.Record, 0, len(s.prices))
	for _, rec := range s.prices {
		out = append(out, rec)
	}
	return out, nil
}

// UpsertCanonicalModel persists the durable form of a canonical model.
func (s *MemoryStore) UpsertCanonicalModel(_ context.Context, model registry.CanonicalModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[model.ID] = model
	return nil
}

// ListCanonicalModels returns all persisted canonical models, sorted by id.
func (s *MemoryStore) ListCanonicalModels(_ context.Context) ([]registry.CanonicalModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]registry.CanonicalModel, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// pricingKey mirrors the composite primary key of the model_pricing table.
func pricingKey(rec pricing.Record) string {
	return strings.ToLower(rec.CanonicalID) + "|" +
		strings.ToLower(rec.Provider) + "|" +
		strings.ToLower(rec.NativeID)
}
