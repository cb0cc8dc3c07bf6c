package registry

import (
	"testing"
	"time"
)

// stubHealth is a canned HealthReader for selection tests.
type stubHealth struct {
	unavailable map[string]bool
	latency     map[string]time.Duration
	successRate map[string]float64
}

func (s *stubHealth) IsAvailable(model, provider string) bool {
	return !s.unavailable[provider]
}

func (s *stubHealth) AvgLatency(model, provider string) (time.Duration, bool) {
	d, ok := s.latency[provider]
	return d, ok
}

func (s *stubHealth) SuccessRate(model, provider string) (float64, bool) {
	r, ok := s.successRate[provider]
	return r, ok
}

func selectionRegistry(t *testing.T) *Registry {
	t.Helper()
	r := New()
	model := CanonicalModel{
		ID: "llama-3.3-70b",
		Bindings: []ProviderBinding{
			{
				Provider: "fireworks", NativeID: "fw-llama", Priority: 1, Enabled: true,
				InputCost: floatPtr(9e-7), OutputCost: floatPtr(9e-7),
				Features: []Feature{FeatureStreaming, FeatureTools},
			},
			{
				Provider: "together", NativeID: "tg-llama", Priority: 2, Enabled: true,
				InputCost: floatPtr(6e-7), OutputCost: floatPtr(6e-7),
				Features: []Feature{FeatureStreaming},
			},
			{
				Provider: "groq", NativeID: "gq-llama", Priority: 3, Enabled: true,
				Features: []Feature{FeatureStreaming},
			},
		},
	}
	if err := r.Register(model); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

func providerOrder(plan []ProviderBinding) []string {
	out := make([]string, len(plan))
	for i, b := range plan {
		out[i] = b.Provider
	}
	return out
}

func assertOrder(t *testing.T, plan []ProviderBinding, want ...string) {
	t.Helper()
	got := providerOrder(plan)
	if len(got) != len(want) {
		t.Fatalf("plan = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("plan = %v, want %v", got, want)
		}
	}
}

func TestSelectProvidersUnknownModel(t *testing.T) {
	r := selectionRegistry(t)

	if _, ok := r.SelectProviders("nope", StrategyPriority, nil, SelectOptions{}); ok {
		t.Error("unknown canonical id should return false")
	}
}

func TestSelectProvidersPriorityOrder(t *testing.T) {
	r := selectionRegistry(t)

	plan, ok := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{})
	if !ok {
		t.Fatal("model should be found")
	}
	assertOrder(t, plan, "fireworks", "together", "groq")
}

func TestSelectProvidersCostOrder(t *testing.T) {
	r := selectionRegistry(t)

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyCost, nil, SelectOptions{})
	// together is cheapest, groq (no pricing) sorts last.
	assertOrder(t, plan, "together", "fireworks", "groq")
}

func TestSelectProvidersLatencyOrder(t *testing.T) {
	r := selectionRegistry(t)
	health := &stubHealth{
		latency: map[string]time.Duration{
			"fireworks": 900 * time.Millisecond,
			"groq":      150 * time.Millisecond,
		},
	}

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyLatency, health, SelectOptions{})
	// Measured bindings first by ascending latency; unmeasured together last.
	assertOrder(t, plan, "groq", "fireworks", "together")
}

func TestSelectProvidersBalanced(t *testing.T) {
	r := selectionRegistry(t)
	health := &stubHealth{
		latency: map[string]time.Duration{
			"fireworks": 200 * time.Millisecond,
			"together":  200 * time.Millisecond,
			"groq":      200 * time.Millisecond,
		},
		successRate: map[string]float64{
			"fireworks": 0.5,
			"together":  1.0,
			"groq":      1.0,
		},
	}

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyBalanced, health, SelectOptions{})
	// Equal latency; together wins on cost and reliability, fireworks is
	// penalized for its failure rate, groq for unknown cost.
	if plan[0].Provider != "together" {
		t.Errorf("plan = %v, want together first", providerOrder(plan))
	}
	if plan[len(plan)-1].Provider == "together" {
		t.Errorf("plan = %v, together should not be last", providerOrder(plan))
	}
}

func TestSelectProvidersSkipsDisabled(t *testing.T) {
	r := selectionRegistry(t)
	if err := r.SetBindingEnabled("llama-3.3-70b", "fireworks", false); err != nil {
		t.Fatalf("SetBindingEnabled: %v", err)
	}

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{})
	assertOrder(t, plan, "together", "groq")
}

func TestSelectProvidersSkipsOpenCircuits(t *testing.T) {
	r := selectionRegistry(t)
	health := &stubHealth{unavailable: map[string]bool{"fireworks": true}}

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, health, SelectOptions{})
	assertOrder(t, plan, "together", "groq")
}

func TestSelectProvidersRequiredFeatures(t *testing.T) {
	r := selectionRegistry(t)

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{
		RequiredFeatures: []Feature{FeatureTools},
	})
	assertOrder(t, plan, "fireworks")
}

func TestSelectProvidersCostCap(t *testing.T) {
	r := selectionRegistry(t)

	costCap := 0.0007 // USD per 1K input tokens
	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{
		MaxCostPer1K: &costCap,
	})
	// fireworks (0.0009/1K) exceeds the cap; unpriced groq passes.
	assertOrder(t, plan, "together", "groq")
}

func TestSelectProvidersExcluded(t *testing.T) {
	r := selectionRegistry(t)

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{
		Excluded: []string{"fireworks", "groq"},
	})
	assertOrder(t, plan, "together")
}

func TestSelectProvidersPreferred(t *testing.T) {
	r := selectionRegistry(t)

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{
		Preferred: "groq",
	})
	assertOrder(t, plan, "groq", "fireworks", "together")
}

func TestSelectProvidersPreferredDoesNotRescueFiltered(t *testing.T) {
	r := selectionRegistry(t)

	plan, _ := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{
		Excluded:  []string{"groq"},
		Preferred: "groq",
	})
	assertOrder(t, plan, "fireworks", "together")
}

func TestSelectProvidersEmptyPlanStillFound(t *testing.T) {
	r := selectionRegistry(t)

	plan, ok := r.SelectProviders("llama-3.3-70b", StrategyPriority, nil, SelectOptions{
		Excluded: []string{"fireworks", "together", "groq"},
	})
	if !ok {
		t.Error("a known model with an empty plan should still return true")
	}
	if len(plan) != 0 {
		t.Errorf("plan = %v, want empty", providerOrder(plan))
	}
}

func TestValidStrategy(t *testing.T) {
	for _, s := range []Strategy{StrategyPriority, StrategyCost, StrategyLatency, StrategyBalanced} {
		if !ValidStrategy(s) {
			t.Errorf("ValidStrategy(%s) = false", s)
		}
	}
	if ValidStrategy("random") {
		t.Error("ValidStrategy(random) = true")
	}
}
