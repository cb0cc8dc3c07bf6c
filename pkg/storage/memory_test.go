package storage

import (
	"context"
	"testing"
	"time"

	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
)

func TestMemoryStoreRequests(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"req-1", "req-2", "req-3"} {
		rec := &RequestRecord{
			ID:          id,
			CanonicalID: "llama-3.3-70b",
			Provider:    "fireworks",
			Status:      StatusCompleted,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveRequest(ctx, rec); err != nil {
			t.Fatalf("SaveRequest: %v", err)
		}
	}

	records, err := s.ListRequests(ctx, 0)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[0].ID != "req-3" {
		t.Errorf("newest first: records[0].ID = %s, want req-3", records[0].ID)
	}

	limited, err := s.ListRequests(ctx, 2)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d records with limit 2", len(limited))
	}
}

func TestMemoryStorePricingUpsert(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	rec := pricing.Record{
		CanonicalID: "gpt-4o",
		Provider:    "openai",
		NativeID:    "gpt-4o-2024-08-06",
		InputPrice:  2.5e-6,
		OutputPrice: 1.0e-5,
		Source:      pricing.SourceCatalog,
	}
	if err := s.UpsertModelPricing(ctx, rec); err != nil {
		t.Fatalf("UpsertModelPricing: %v", err)
	}

	// Same key, different case: replaces rather than duplicates.
	rec.CanonicalID = "GPT-4O"
	rec.InputPrice = 3e-6
	if err := s.UpsertModelPricing(ctx, rec); err != nil {
		t.Fatalf("UpsertModelPricing: %v", err)
	}

	records, err := s.ListModelPricing(ctx)
	if err != nil {
		t.Fatalf("ListModelPricing: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1 (case-insensitive key)", len(records))
	}
	if records[0].InputPrice != 3e-6 {
		t.Errorf("InputPrice = %v, want the replacement value", records[0].InputPrice)
	}
}

func TestMemoryStoreCanonicalModels(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"zeta", "alpha"} {
		model := registry.CanonicalModel{
			ID: id,
			Bindings: []registry.ProviderBinding{
				{Provider: "openai", NativeID: id + "-native", Priority: 1, Enabled: true},
			},
		}
		if err := s.UpsertCanonicalModel(ctx, model); err != nil {
			t.Fatalf("UpsertCanonicalModel: %v", err)
		}
	}

	models, err := s.ListCanonicalModels(ctx)
	if err != nil {
		t.Fatalf("ListCanonicalModels: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].ID != "alpha" || models[1].ID != "zeta" {
		t.Errorf("models not sorted by id: %s, %s", models[0].ID, models[1].ID)
	}

	// Upsert replaces.
	update := registry.CanonicalModel{
		ID:   "alpha",
		Name: "Alpha",
		Bindings: []registry.ProviderBinding{
			{Provider: "openai", NativeID: "alpha-native", Priority: 1, Enabled: true},
		},
	}
	if err := s.UpsertCanonicalModel(ctx, update); err != nil {
		t.Fatalf("UpsertCanonicalModel: %v", err)
	}
	models, _ = s.ListCanonicalModels(ctx)
	if len(models) != 2 || models[0].Name != "Alpha" {
		t.Errorf("upsert should replace in place")
	}
}

func TestMemoryStoreClose(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
