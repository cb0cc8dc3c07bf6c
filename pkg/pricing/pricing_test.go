package pricing

import (
	"context"
	"errors"
	"math"
	"testing"

	"mercator-hq/meridian/pkg/registry"
)

// stubStore serves canned pricing records.
type stubStore struct {
	records []Record
	err     error
}

func (s *stubStore) ListModelPricing(ctx context.Context) ([]Record, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

// stubBindings serves one canned canonical model.
type stubBindings struct {
	model registry.CanonicalModel
	ok    bool
}

func (s *stubBindings) Get(canonicalID string) (registry.CanonicalModel, bool) {
	if !s.ok || canonicalID != s.model.ID {
		return registry.CanonicalModel{}, false
	}
	return s.model, true
}

func floatPtr(v float64) *float64 { return &v }

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{"", UnitPerToken, false},
		{"per_token", UnitPerToken, false},
		{"token", UnitPerToken, false},
		{"per_1k", UnitPer1K, false},
		{"1k", UnitPer1K, false},
		{"thousand", UnitPer1K, false},
		{"per_1m", UnitPer1M, false},
		{"1m", UnitPer1M, false},
		{"million", UnitPer1M, false},
		{"per_request", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUnit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		unit Unit
		want float64
	}{
		{"per token passthrough", 2.5e-6, UnitPerToken, 2.5e-6},
		{"per 1k", 0.0025, UnitPer1K, 2.5e-6},
		{"per 1m", 2.5, UnitPer1M, 2.5e-6},
		{"zero", 0, UnitPer1M, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.rate, tt.unit); math.Abs(got-tt.want) > 1e-15 {
				t.Errorf("Normalize(%v, %s) = %v, want %v", tt.rate, tt.unit, got, tt.want)
			}
		})
	}
}

func TestComputeCost(t *testing.T) {
	quote := Quote{InputPrice: 2.5e-6, OutputPrice: 1.0e-5, Source: SourceCatalog}
	cost := Compute(quote, 400, 120)

	if math.Abs(cost.InputCost-0.001) > 1e-12 {
		t.Errorf("InputCost = %v, want 0.001", cost.InputCost)
	}
	if math.Abs(cost.OutputCost-0.0012) > 1e-12 {
		t.Errorf("OutputCost = %v, want 0.0012", cost.OutputCost)
	}
	if math.Abs(cost.TotalCost-0.0022) > 1e-12 {
		t.Errorf("TotalCost = %v, want 0.0022", cost.TotalCost)
	}
}

func TestComputeCostZeroTokens(t *testing.T) {
	cost := Compute(Quote{InputPrice: 1e-6, OutputPrice: 1e-6, Source: SourceDatabase}, 0, 0)
	if cost.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0", cost.TotalCost)
	}
}

func TestResolveNothingLoaded(t *testing.T) {
	r := NewResolver(nil, nil)

	quote := r.Resolve("gpt-4o", "openai", "gpt-4o-2024-08-06")
	if quote.Source != SourceUnknown {
		t.Errorf("Source = %s, want %s", quote.Source, SourceUnknown)
	}
	if quote.Known() {
		t.Error("unknown quote must not report Known")
	}
}

func TestResolveDatabasePrecedence(t *testing.T) {
	store := &stubStore{records: []Record{
		{CanonicalID: "gpt-4o", InputPrice: 2.5e-6, OutputPrice: 1.0e-5},
	}}
	bindings := &stubBindings{ok: true, model: registry.CanonicalModel{
		ID: "gpt-4o",
		Bindings: []registry.ProviderBinding{
			{Provider: "openai", NativeID: "gpt-4o-2024-08-06", InputCost: floatPtr(9e-6), OutputCost: floatPtr(9e-6)},
		},
	}}

	r := NewResolver(store, bindings)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	quote := r.Resolve("gpt-4o", "openai", "gpt-4o-2024-08-06")
	if quote.Source != SourceDatabase {
		t.Fatalf("Source = %s, want %s: database beats catalog binding", quote.Source, SourceDatabase)
	}
	if quote.InputPrice != 2.5e-6 || quote.OutputPrice != 1.0e-5 {
		t.Errorf("prices = %v/%v, want 2.5e-06/1e-05", quote.InputPrice, quote.OutputPrice)
	}
}

func TestResolveDatabaseByNativeID(t *testing.T) {
	store := &stubStore{records: []Record{
		{Provider: "Fireworks", NativeID: "Accounts/Fireworks/Models/Llama", InputPrice: 9e-7, OutputPrice: 9e-7},
	}}
	r := NewResolver(store, nil)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	// Native-key matching is case-insensitive.
	quote := r.Resolve("llama-3.3-70b", "fireworks", "accounts/fireworks/models/llama")
	if quote.Source != SourceDatabase {
		t.Errorf("Source = %s, want %s", quote.Source, SourceDatabase)
	}
}

func TestResolveCatalogBinding(t *testing.T) {
	bindings := &stubBindings{ok: true, model: registry.CanonicalModel{
		ID: "llama-3.3-70b",
		Bindings: []registry.ProviderBinding{
			{Provider: "fireworks", NativeID: "fw-llama", InputCost: floatPtr(9e-7), OutputCost: floatPtr(9e-7)},
			{Provider: "groq", NativeID: "gq-llama"},
		},
	}}

	r := NewResolver(nil, bindings)

	quote := r.Resolve("llama-3.3-70b", "fireworks", "fw-llama")
	if quote.Source != SourceCatalog {
		t.Fatalf("Source = %s, want %s", quote.Source, SourceCatalog)
	}
	if quote.InputPrice != 9e-7 {
		t.Errorf("InputPrice = %v, want 9e-07", quote.InputPrice)
	}

	// Binding without pricing falls through to unknown.
	quote = r.Resolve("llama-3.3-70b", "groq", "gq-llama")
	if quote.Source != SourceUnknown {
		t.Errorf("Source = %s, want %s for unpriced binding", quote.Source, SourceUnknown)
	}
}

func TestResolveManualOverride(t *testing.T) {
	r := NewResolver(nil, nil)
	r.SetManualOverrides([]Record{
		{CanonicalID: "house-model", InputPrice: 1e-6, OutputPrice: 2e-6, Source: SourceManual},
		{Provider: "openai", NativeID: "ft:gpt-4o:acme", InputPrice: 5e-6, OutputPrice: 1.5e-5, Source: SourceManual},
	})

	quote := r.Resolve("house-model", "openai", "whatever")
	if quote.Source != SourceManual {
		t.Errorf("Source = %s, want %s", quote.Source, SourceManual)
	}

	quote = r.Resolve("unmapped", "openai", "ft:gpt-4o:acme")
	if quote.Source != SourceManual {
		t.Errorf("native-keyed override Source = %s, want %s", quote.Source, SourceManual)
	}
	if quote.OutputPrice != 1.5e-5 {
		t.Errorf("OutputPrice = %v, want 1.5e-05", quote.OutputPrice)
	}
}

func TestResolveDatabaseBeatsManual(t *testing.T) {
	store := &stubStore{records: []Record{
		{CanonicalID: "gpt-4o", InputPrice: 2.5e-6, OutputPrice: 1.0e-5},
	}}
	r := NewResolver(store, nil)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	r.SetManualOverrides([]Record{
		{CanonicalID: "gpt-4o", InputPrice: 1, OutputPrice: 1},
	})

	quote := r.Resolve("gpt-4o", "openai", "gpt-4o-2024-08-06")
	if quote.Source != SourceDatabase {
		t.Errorf("Source = %s, want %s", quote.Source, SourceDatabase)
	}
	if quote.InputPrice != 2.5e-6 {
		t.Errorf("InputPrice = %v, want the database price", quote.InputPrice)
	}
}

func TestResolveExplicitZeroIsFree(t *testing.T) {
	store := &stubStore{records: []Record{
		{CanonicalID: "free-model", InputPrice: 0, OutputPrice: 0},
	}}
	r := NewResolver(store, nil)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	quote := r.Resolve("free-model", "openai", "free-model")
	if quote.Source != SourceFree {
		t.Errorf("Source = %s, want %s", quote.Source, SourceFree)
	}
	if !quote.Known() {
		t.Error("free pricing should count as known")
	}
	if cost := Compute(quote, 1000, 1000); cost.TotalCost != 0 {
		t.Errorf("TotalCost = %v, want 0", cost.TotalCost)
	}
}

func TestRefreshPropagatesStoreError(t *testing.T) {
	wantErr := errors.New("db gone")
	r := NewResolver(&stubStore{err: wantErr}, nil)

	if err := r.Refresh(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Refresh error = %v, want %v", err, wantErr)
	}
}

func TestSetManualOverridesKeepsDatabaseRecords(t *testing.T) {
	store := &stubStore{records: []Record{
		{CanonicalID: "gpt-4o", InputPrice: 2.5e-6, OutputPrice: 1.0e-5},
	}}
	r := NewResolver(store, nil)
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	r.SetManualOverrides([]Record{
		{CanonicalID: "other", InputPrice: 1e-6, OutputPrice: 1e-6},
	})

	if quote := r.Resolve("gpt-4o", "openai", "x"); quote.Source != SourceDatabase {
		t.Errorf("database records should survive an override reload, got %s", quote.Source)
	}
	if quote := r.Resolve("other", "openai", "x"); quote.Source != SourceManual {
		t.Errorf("new overrides should be live, got %s", quote.Source)
	}
}
