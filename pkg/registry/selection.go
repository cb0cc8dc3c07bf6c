package registry

import (
	"sort"
	"time"
)

// Strategy names a provider-ordering strategy for SelectProviders.
type Strategy string

const (
	// StrategyPriority orders by the binding's explicit priority field.
	StrategyPriority Strategy = "priority"

	// StrategyCost orders by ascending per-token input+output price.
	// Bindings without pricing sort last.
	StrategyCost Strategy = "cost"

	// StrategyLatency orders by ascending rolling average latency from the
	// health tracker. Bindings without latency data sort last.
	StrategyLatency Strategy = "latency"

	// StrategyBalanced orders by a combined score of normalized cost,
	// normalized latency, and failure rate.
	StrategyBalanced Strategy = "balanced"
)

// ValidStrategy reports whether s names a known strategy.
func ValidStrategy(s Strategy) bool {
	switch s {
	case StrategyPriority, StrategyCost, StrategyLatency, StrategyBalanced:
		return true
	}
	return false
}

// HealthReader is the view of the health tracker the registry needs for
// latency- and reliability-aware selection. *health.Tracker satisfies it.
type HealthReader interface {
	// IsAvailable reports whether the pair's circuit admits requests.
	IsAvailable(model, provider string) bool

	// AvgLatency returns the rolling average latency; false when no samples.
	AvgLatency(model, provider string) (time.Duration, bool)

	// SuccessRate returns the lifetime success ratio; false when no events.
	SuccessRate(model, provider string) (float64, bool)
}

// SelectOptions narrows and reorders the provider plan.
type SelectOptions struct {
	// RequiredFeatures keeps only bindings supporting every listed feature.
	RequiredFeatures []Feature

	// MaxCostPer1K drops bindings whose input price per 1000 tokens
	// exceeds the cap. Nil means no cap. Bindings without pricing pass.
	MaxCostPer1K *float64

	// Excluded drops bindings from the listed provider slugs.
	Excluded []string

	// Preferred moves the named provider to the head of the plan when it
	// survives filtering. It does not rescue a filtered-out binding.
	Preferred string
}

// SelectProviders produces the ordered provider plan for a canonical model.
//
// Filters are applied first (enabled, required features, cost cap,
// exclusions, circuit availability), then the surviving bindings are
// ordered by the strategy with the provider slug as a deterministic
// tie-break, and finally the preferred provider is promoted to the head.
//
// A missing canonical id returns false; a plan emptied by filtering returns
// an empty slice and true, and the caller decides what that means.
func (r *Registry) SelectProviders(canonicalID string, strategy Strategy, healthReader HealthReader, opts SelectOptions) ([]ProviderBinding, bool) {
	r.mu.RLock()
	model, ok := r.models[canonicalID]
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	// Snapshot the binding slice so sorting happens outside the model's
	// storage and concurrent Register calls cannot shear it.
	bindings := append([]ProviderBinding(nil), model.Bindings...)
	r.mu.RUnlock()

	excluded := make(map[string]bool, len(opts.Excluded))
	for _, slug := range opts.Excluded {
		excluded[slug] = true
	}

	filtered := bindings[:0]
	for _, b := range bindings {
		if !b.Enabled {
			continue
		}
		if !b.HasFeatures(opts.RequiredFeatures) {
			continue
		}
		if opts.MaxCostPer1K != nil && b.InputCost != nil && *b.InputCost*1000 > *opts.MaxCostPer1K {
			continue
		}
		if excluded[b.Provider] {
			continue
		}
		if healthReader != nil && !healthReader.IsAvailable(canonicalID, b.Provider) {
			continue
		}
		filtered = append(filtered, b)
	}

	orderBindings(canonicalID, filtered, strategy, healthReader)

	if opts.Preferred != "" {
		promote(filtered, opts.Preferred)
	}

	return filtered, true
}

// orderBindings sorts the plan in place per the strategy.
func orderBindings(canonicalID string, bindings []ProviderBinding, strategy Strategy, healthReader HealthReader) {
	switch strategy {
	case StrategyCost:
		sort.SliceStable(bindings, func(i, j int) bool {
			ci, iOK := tokenSum(&bindings[i])
			cj, jOK := tokenSum(&bindings[j])
			if iOK != jOK {
				return iOK // priced bindings first
			}
			if iOK && ci != cj {
				return ci < cj
			}
			return bindings[i].Provider < bindings[j].Provider
		})

	case StrategyLatency:
		sort.SliceStable(bindings, func(i, j int) bool {
			li, iOK := bindingLatency(canonicalID, &bindings[i], healthReader)
			lj, jOK := bindingLatency(canonicalID, &bindings[j], healthReader)
			if iOK != jOK {
				return iOK // measured bindings first
			}
			if iOK && li != lj {
				return li < lj
			}
			return bindings[i].Provider < bindings[j].Provider
		})

	case StrategyBalanced:
		scores := balancedScores(canonicalID, bindings, healthReader)
		sort.SliceStable(bindings, func(i, j int) bool {
			if scores[bindings[i].Provider] != scores[bindings[j].Provider] {
				return scores[bindings[i].Provider] < scores[bindings[j].Provider]
			}
			return bindings[i].Provider < bindings[j].Provider
		})

	default: // StrategyPriority
		sort.SliceStable(bindings, func(i, j int) bool {
			if bindings[i].Priority != bindings[j].Priority {
				return bindings[i].Priority < bindings[j].Priority
			}
			return bindings[i].Provider < bindings[j].Provider
		})
	}
}

// balancedScores computes score = normalized(cost) + normalized(latency) +
// (1 - success_rate) per binding. Unknown cost or latency normalizes to the
// worst observed value; unknown success rate contributes nothing, matching
// the tracker's optimism about unseen pairs.
func balancedScores(canonicalID string, bindings []ProviderBinding, healthReader HealthReader) map[string]float64 {
	var (
		minCost, maxCost = 0.0, 0.0
		minLat, maxLat   = time.Duration(0), time.Duration(0)
		haveCost, haveLat bool
	)
	for i := range bindings {
		if c, ok := tokenSum(&bindings[i]); ok {
			if !haveCost || c < minCost {
				minCost = c
			}
			if !haveCost || c > maxCost {
				maxCost = c
			}
			haveCost = true
		}
		if l, ok := bindingLatency(canonicalID, &bindings[i], healthReader); ok {
			if !haveLat || l < minLat {
				minLat = l
			}
			if !haveLat || l > maxLat {
				maxLat = l
			}
			haveLat = true
		}
	}

	scores := make(map[string]float64, len(bindings))
	for i := range bindings {
		b := &bindings[i]
		var score float64

		if c, ok := tokenSum(b); ok {
			score += normalize(c, minCost, maxCost)
		} else if haveCost {
			score += 1
		}

		if l, ok := bindingLatency(canonicalID, b, healthReader); ok {
			score += normalize(float64(l), float64(minLat), float64(maxLat))
		} else if haveLat {
			score += 1
		}

		if healthReader != nil {
			if rate, ok := healthReader.SuccessRate(canonicalID, b.Provider); ok {
				score += 1 - rate
			}
		}

		scores[b.Provider] = score
	}
	return scores
}

// tokenSum returns the combined per-token price of a binding.
func tokenSum(b *ProviderBinding) (float64, bool) {
	if !b.hasPricing() {
		return 0, false
	}
	return *b.InputCost + *b.OutputCost, true
}

// bindingLatency returns the rolling average latency for a binding.
func bindingLatency(canonicalID string, b *ProviderBinding, healthReader HealthReader) (time.Duration, bool) {
	if healthReader == nil {
		return 0, false
	}
	return healthReader.AvgLatency(canonicalID, b.Provider)
}

// normalize scales v into [0, 1] over [min, max].
func normalize(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) / (max - min)
}

// promote moves the named provider to the head, preserving the relative
// order of the others.
func promote(bindings []ProviderBinding, provider string) {
	for i := range bindings {
		if bindings[i].Provider == provider {
			b := bindings[i]
			copy(bindings[1:i+1], bindings[0:i])
			bindings[0] = b
			return
		}
	}
}
