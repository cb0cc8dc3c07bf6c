package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// nativeKey indexes a provider-native model id.
type nativeKey struct {
	provider string
	native   string
}

// Registry is the canonical model catalog. Safe for concurrent use.
type Registry struct {
	mu sync.RWMutex

	// models owns the canonical models, keyed by canonical id.
	models map[string]*CanonicalModel

	// canonLower maps lowercased canonical ids to canonical ids for
	// case-insensitive direct resolution.
	canonLower map[string]string

	// aliasIndex maps lowercased declared aliases to canonical ids.
	aliasIndex map[string]string

	// nativeIndex maps (provider, lowercased native id) to canonical ids.
	nativeIndex map[nativeKey]string

	// bareNative maps lowercased native ids (without provider) to
	// canonical ids. First writer wins across providers.
	bareNative map[string]string

	logger *slog.Logger
	now    func() time.Time
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		models:      make(map[string]*CanonicalModel),
		canonLower:  make(map[string]string),
		aliasIndex:  make(map[string]string),
		nativeIndex: make(map[nativeKey]string),
		bareNative:  make(map[string]string),
		logger:      slog.Default().With("component", "registry"),
		now:         time.Now,
	}
}

// Register upserts a canonical model.
//
// When the canonical id already exists, incoming bindings replace existing
// bindings with the same provider slug and new providers are appended;
// non-empty scalar fields override, declared aliases are unioned. The
// model's aggregate fields (binding order, pricing range, context length,
// feature union) and its index entries are rebuilt.
func (r *Registry) Register(model CanonicalModel) error {
	if model.ID == "" {
		return fmt.Errorf("canonical model id is required")
	}
	if len(model.Bindings) == 0 {
		return fmt.Errorf("canonical model %q must have at least one binding", model.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.models[model.ID]
	if !ok {
		merged := copyModel(&model)
		dedupeBindings(merged)
		normalizeModel(merged, r.now())
		r.models[model.ID] = merged
		r.indexModel(merged)
		r.logger.Debug("canonical model registered",
			"model", model.ID,
			"bindings", len(merged.Bindings),
		)
		return nil
	}

	// Merge into the existing model.
	r.unindexModel(existing)

	if model.Name != "" {
		existing.Name = model.Name
	}
	if model.Description != "" {
		existing.Description = model.Description
	}
	if model.Category != "" {
		existing.Category = model.Category
	}
	existing.Modalities = unionModalities(existing.Modalities, model.Modalities)
	existing.Aliases = unionStrings(existing.Aliases, model.Aliases)

	for _, incoming := range model.Bindings {
		replaced := false
		for i := range existing.Bindings {
			if existing.Bindings[i].Provider == incoming.Provider {
				existing.Bindings[i] = incoming
				replaced = true
				break
			}
		}
		if !replaced {
			existing.Bindings = append(existing.Bindings, incoming)
		}
	}

	normalizeModel(existing, r.now())
	r.indexModel(existing)

	r.logger.Debug("canonical model updated",
		"model", model.ID,
		"bindings", len(existing.Bindings),
	)
	return nil
}

// AddAlias registers a case-insensitive alias for a canonical model.
//
// An alias that already resolves to a different canonical id is left
// untouched: first writer wins, and the conflict is logged rather than
// surfaced. An alias for an unknown canonical id is logged and dropped.
func (r *Registry) AddAlias(alias, canonicalID string) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	model, ok := r.models[canonicalID]
	if !ok {
		r.logger.Warn("alias for unknown canonical model dropped",
			"alias", alias,
			"model", canonicalID,
		)
		return
	}

	key := strings.ToLower(alias)
	if current, ok := r.aliasIndex[key]; ok && current != canonicalID {
		r.logger.Warn("alias collision, keeping first registration",
			"alias", alias,
			"existing", current,
			"rejected", canonicalID,
		)
		return
	}

	r.aliasIndex[key] = canonicalID
	model.Aliases = unionStrings(model.Aliases, []string{alias})
}

// Resolve maps any identifier to a canonical id. The lookup tries, in
// order: direct canonical match, declared aliases, a "provider/native-id"
// composite, and finally the bare provider-native index. All matching is
// case-insensitive. The second return is false when nothing matched.
func (r *Registry) Resolve(identifier string) (string, bool) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", false
	}
	lower := strings.ToLower(identifier)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if id, ok := r.canonLower[lower]; ok {
		return id, true
	}
	if id, ok := r.aliasIndex[lower]; ok {
		return id, true
	}
	if idx := strings.Index(lower, "/"); idx > 0 {
		key := nativeKey{provider: lower[:idx], native: lower[idx+1:]}
		if id, ok := r.nativeIndex[key]; ok {
			return id, true
		}
	}
	if id, ok := r.bareNative[lower]; ok {
		return id, true
	}
	return "", false
}

// Get returns a copy of a canonical model.
func (r *Registry) Get(canonicalID string) (CanonicalModel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	model, ok := r.models[canonicalID]
	if !ok {
		return CanonicalModel{}, false
	}
	return *copyModel(model), true
}

// List returns copies of all canonical models, sorted by id.
func (r *Registry) List() []CanonicalModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]CanonicalModel, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, *copyModel(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListByProvider returns copies of all canonical models that have a binding
// for the given provider slug, sorted by id.
func (r *Registry) ListByProvider(provider string) []CanonicalModel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CanonicalModel
	for _, m := range r.models {
		if _, ok := m.Binding(provider); ok {
			out = append(out, *copyModel(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Search returns models matching the filter, sorted by id. Results are not
// ranked; every filter field narrows the set.
func (r *Registry) Search(filter SearchFilter) []CanonicalModel {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []CanonicalModel
	for _, m := range r.models {
		if query != "" && !matchesQuery(m, query) {
			continue
		}
		if filter.Category != "" && m.Category != filter.Category {
			continue
		}
		if filter.Feature != "" && !hasFeature(m.Features, filter.Feature) {
			continue
		}
		if filter.Modality != "" && !hasModality(m.Modalities, filter.Modality) {
			continue
		}
		if filter.Provider != "" {
			if _, ok := m.Binding(filter.Provider); !ok {
				continue
			}
		}
		out = append(out, *copyModel(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetBindingEnabled flips one binding's enabled flag. Used by catalog
// ingest when a provider drops a model: the binding is disabled, never
// deleted.
func (r *Registry) SetBindingEnabled(canonicalID, provider string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	model, ok := r.models[canonicalID]
	if !ok {
		return fmt.Errorf("unknown canonical model %q", canonicalID)
	}
	for i := range model.Bindings {
		if model.Bindings[i].Provider == provider {
			if model.Bindings[i].Enabled != enabled {
				model.Bindings[i].Enabled = enabled
				model.UpdatedAt = r.now()
				r.logger.Info("binding enabled flag changed",
					"model", canonicalID,
					"provider", provider,
					"enabled", enabled,
				)
			}
			return nil
		}
	}
	return fmt.Errorf("model %q has no binding for provider %q", canonicalID, provider)
}

// Stats summarizes registry contents.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Stats{
		Models:             len(r.models),
		Aliases:            len(r.aliasIndex),
		BindingsByProvider: make(map[string]int),
	}
	for _, m := range r.models {
		s.Bindings += len(m.Bindings)
		for _, b := range m.Bindings {
			s.BindingsByProvider[b.Provider]++
		}
	}
	return s
}

// indexModel adds the index entries contributed by a model. Collisions with
// entries owned by other canonicals keep the first writer and log.
// Caller holds the write lock.
func (r *Registry) indexModel(m *CanonicalModel) {
	lowerID := strings.ToLower(m.ID)
	if current, ok := r.canonLower[lowerID]; ok && current != m.ID {
		r.logger.Warn("canonical id case collision, keeping first registration",
			"existing", current,
			"rejected", m.ID,
		)
	} else {
		r.canonLower[lowerID] = m.ID
	}

	for _, alias := range m.Aliases {
		key := strings.ToLower(alias)
		if current, ok := r.aliasIndex[key]; ok && current != m.ID {
			r.logger.Warn("alias collision, keeping first registration",
				"alias", alias,
				"existing", current,
				"rejected", m.ID,
			)
			continue
		}
		r.aliasIndex[key] = m.ID
	}

	for _, b := range m.Bindings {
		nk := nativeKey{
			provider: strings.ToLower(b.Provider),
			native:   strings.ToLower(b.NativeID),
		}
		if current, ok := r.nativeIndex[nk]; ok && current != m.ID {
			r.logger.Warn("native id collision, keeping first registration",
				"provider", b.Provider,
				"native_id", b.NativeID,
				"existing", current,
				"rejected", m.ID,
			)
			continue
		}
		r.nativeIndex[nk] = m.ID

		bare := strings.ToLower(b.NativeID)
		if _, ok := r.bareNative[bare]; !ok {
			r.bareNative[bare] = m.ID
		}
	}
}

// unindexModel removes the index entries contributed by a model, leaving
// entries owned by other canonicals intact. Caller holds the write lock.
func (r *Registry) unindexModel(m *CanonicalModel) {
	lowerID := strings.ToLower(m.ID)
	if r.canonLower[lowerID] == m.ID {
		delete(r.canonLower, lowerID)
	}
	for _, alias := range m.Aliases {
		key := strings.ToLower(alias)
		if r.aliasIndex[key] == m.ID {
			delete(r.aliasIndex, key)
		}
	}
	for _, b := range m.Bindings {
		nk := nativeKey{
			provider: strings.ToLower(b.Provider),
			native:   strings.ToLower(b.NativeID),
		}
		if r.nativeIndex[nk] == m.ID {
			delete(r.nativeIndex, nk)
		}
		bare := strings.ToLower(b.NativeID)
		if r.bareNative[bare] == m.ID {
			delete(r.bareNative, bare)
		}
	}
}

// normalizeModel restores the model invariants: bindings sorted by
// ascending priority (provider slug breaks ties), aggregate pricing equal
// to the min/max over priced bindings, context length and features
// aggregated over bindings.
func normalizeModel(m *CanonicalModel, now time.Time) {
	sort.SliceStable(m.Bindings, func(i, j int) bool {
		if m.Bindings[i].Priority != m.Bindings[j].Priority {
			return m.Bindings[i].Priority < m.Bindings[j].Priority
		}
		return m.Bindings[i].Provider < m.Bindings[j].Provider
	})

	var pricing PriceRange
	for _, b := range m.Bindings {
		if !b.hasPricing() {
			continue
		}
		in, out := *b.InputCost, *b.OutputCost
		if !pricing.Known {
			pricing = PriceRange{MinInput: in, MaxInput: in, MinOutput: out, MaxOutput: out, Known: true}
			continue
		}
		if in < pricing.MinInput {
			pricing.MinInput = in
		}
		if in > pricing.MaxInput {
			pricing.MaxInput = in
		}
		if out < pricing.MinOutput {
			pricing.MinOutput = out
		}
		if out > pricing.MaxOutput {
			pricing.MaxOutput = out
		}
	}
	m.Pricing = pricing

	// Rebuild the feature union and context length from the current
	// bindings so a binding update can shrink them. A declared model-level
	// context length survives only while no binding carries one.
	features := make([]Feature, 0, len(m.Features))
	contextLength := 0
	for _, b := range m.Bindings {
		if b.ContextLength > contextLength {
			contextLength = b.ContextLength
		}
		for _, f := range b.Features {
			if !hasFeature(features, f) {
				features = append(features, f)
			}
		}
	}
	if contextLength > 0 {
		m.ContextLength = contextLength
	}
	m.Features = features
	sort.Slice(m.Features, func(i, j int) bool { return m.Features[i] < m.Features[j] })

	m.UpdatedAt = now
}

// dedupeBindings keeps the last binding per provider for a freshly
// registered model.
func dedupeBindings(m *CanonicalModel) {
	seen := make(map[string]int)
	out := m.Bindings[:0]
	for _, b := range m.Bindings {
		if i, ok := seen[b.Provider]; ok {
			out[i] = b
			continue
		}
		seen[b.Provider] = len(out)
		out = append(out, b)
	}
	m.Bindings = out
}

// copyModel clones a model, including its slices.
func copyModel(m *CanonicalModel) *CanonicalModel {
	out := *m
	out.Bindings = append([]ProviderBinding(nil), m.Bindings...)
	for i := range out.Bindings {
		out.Bindings[i].Features = append([]Feature(nil), m.Bindings[i].Features...)
		if m.Bindings[i].InputCost != nil {
			v := *m.Bindings[i].InputCost
			out.Bindings[i].InputCost = &v
		}
		if m.Bindings[i].OutputCost != nil {
			v := *m.Bindings[i].OutputCost
			out.Bindings[i].OutputCost = &v
		}
		if m.Bindings[i].MaxOutputTokens != nil {
			v := *m.Bindings[i].MaxOutputTokens
			out.Bindings[i].MaxOutputTokens = &v
		}
	}
	out.Modalities = append([]Modality(nil), m.Modalities...)
	out.Features = append([]Feature(nil), m.Features...)
	out.Aliases = append([]string(nil), m.Aliases...)
	return &out
}

func matchesQuery(m *CanonicalModel, query string) bool {
	return strings.Contains(strings.ToLower(m.ID), query) ||
		strings.Contains(strings.ToLower(m.Name), query) ||
		strings.Contains(strings.ToLower(m.Description), query)
}

func hasFeature(fs []Feature, f Feature) bool {
	for _, have := range fs {
		if have == f {
			return true
		}
	}
	return false
}

func hasModality(ms []Modality, m Modality) bool {
	for _, have := range ms {
		if have == m {
			return true
		}
	}
	return false
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a))
	out := append([]string(nil), a...)
	for _, s := range a {
		seen[strings.ToLower(s)] = true
	}
	for _, s := range b {
		if !seen[strings.ToLower(s)] {
			seen[strings.ToLower(s)] = true
			out = append(out, s)
		}
	}
	return out
}

func unionModalities(a, b []Modality) []Modality {
	seen := make(map[Modality]bool, len(a))
	out := append([]Modality(nil), a...)
	for _, m := range a {
		seen[m] = true
	}
	for _, m := range b {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}
