package health

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// pairKey identifies one (canonical model, provider) circuit.
type pairKey struct {
	model    string
	provider string
}

// entry holds the mutable state of one circuit.
// All fields are guarded by mu; transitions happen atomically under it.
type entry struct {
	mu sync.Mutex

	state        CircuitState
	failureCount int
	successCount int
	slowCount    int

	successes int64
	failures  int64

	lastSuccess time.Time
	lastFailure time.Time

	ring *latencyRing
}

// Tracker maintains circuit breakers for every observed
// (canonical model, provider) pair.
//
// The hot path (IsAvailable, RecordSuccess, RecordFailure) takes the coarse
// map lock only long enough to find or create the entry, then operates under
// the per-entry lock. Transitions are linearizable per pair.
type Tracker struct {
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[pairKey]*entry
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock overrides the tracker's time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// NewTracker creates a tracker with the given configuration.
// Zero-valued config fields take their defaults.
func NewTracker(cfg Config, opts ...Option) *Tracker {
	cfg.applyDefaults()

	t := &Tracker{
		config:  cfg,
		logger:  slog.Default().With("component", "health.tracker"),
		now:     time.Now,
		entries: make(map[pairKey]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// getOrCreate returns the entry for a pair, creating it on first use.
func (t *Tracker) getOrCreate(model, provider string) *entry {
	key := pairKey{model: model, provider: provider}

	t.mu.RLock()
	e, ok := t.entries[key]
	t.mu.RUnlock()
	if ok {
		return e
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[key]; ok {
		return e
	}
	e = &entry{
		state: StateClosed,
		ring:  newLatencyRing(t.config.LatencyWindow),
	}
	t.entries[key] = e
	return e
}

// RecordSuccess records one successful request with its observed latency.
//
// In CLOSED state a success works the failure count back toward zero. A
// latency above the slow-response threshold counts toward the consecutive
// slow-response limit and can open the circuit on its own; a fast response
// resets that counter.
//
// In HALF_OPEN state every success counts toward recovery, slow or not:
// a provider that is slow but reliable is allowed to recover.
func (t *Tracker) RecordSuccess(model, provider string, latency time.Duration) {
	e := t.getOrCreate(model, provider)
	now := t.now()
	slow := latency > t.config.SlowResponseThreshold

	e.mu.Lock()
	defer e.mu.Unlock()

	e.successes++
	e.lastSuccess = now
	e.ring.add(latency)

	switch e.state {
	case StateClosed:
		if e.failureCount > 0 {
			e.failureCount--
		}
		if slow {
			e.slowCount++
			if e.slowCount >= t.config.SlowResponseLimit {
				t.open(e, model, provider, now, "slow responses")
			}
		} else {
			e.slowCount = 0
		}

	case StateHalfOpen:
		e.successCount++
		if e.successCount >= t.config.SuccessThreshold {
			e.state = StateClosed
			e.failureCount = 0
			e.slowCount = 0
			// A fresh window for the recovered provider: stale samples from
			// before the outage would skew latency-based routing.
			e.ring.reset()
			t.logger.Info("circuit closed after recovery",
				"model", model,
				"provider", provider,
			)
		}

	case StateOpen:
		// A request that raced the circuit opening. Totals are already
		// updated; the state machine is untouched.
	}
}

// RecordFailure records one failed request.
func (t *Tracker) RecordFailure(model, provider string) {
	e := t.getOrCreate(model, provider)
	now := t.now()

	e.mu.Lock()
	defer e.mu.Unlock()

	e.failures++
	e.lastFailure = now

	switch e.state {
	case StateClosed:
		e.failureCount++
		if e.failureCount >= t.config.FailureThreshold {
			t.open(e, model, provider, now, "consecutive failures")
		}

	case StateHalfOpen:
		t.open(e, model, provider, now, "probe failure")

	case StateOpen:
		// Already open; lastFailure was re-stamped above, which extends
		// the block window.
	}
}

// open transitions an entry to OPEN. Caller holds e.mu.
func (t *Tracker) open(e *entry, model, provider string, now time.Time, reason string) {
	e.state = StateOpen
	e.lastFailure = now
	e.slowCount = 0
	t.logger.Warn("circuit opened",
		"model", model,
		"provider", provider,
		"reason", reason,
		"failure_count", e.failureCount,
	)
}

// IsAvailable reports whether requests to the pair are currently admitted.
// It returns false only while the circuit is OPEN. Pairs with no recorded
// history are available: the tracker does not pre-block providers it has
// never observed.
//
// When an OPEN circuit's recovery timeout has elapsed, the check itself
// performs the transition to HALF_OPEN and admits the request.
func (t *Tracker) IsAvailable(model, provider string) bool {
	t.mu.RLock()
	e, ok := t.entries[pairKey{model: model, provider: provider}]
	t.mu.RUnlock()
	if !ok {
		return true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateOpen {
		return true
	}

	if t.now().Sub(e.lastFailure) > t.config.RecoveryTimeout {
		e.state = StateHalfOpen
		e.successCount = 0
		t.logger.Info("circuit half-open, admitting probes",
			"model", model,
			"provider", provider,
		)
		return true
	}

	return false
}

// State returns the circuit state for a pair. Unknown pairs are CLOSED.
func (t *Tracker) State(model, provider string) CircuitState {
	t.mu.RLock()
	e, ok := t.entries[pairKey{model: model, provider: provider}]
	t.mu.RUnlock()
	if !ok {
		return StateClosed
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// AvgLatency returns the rolling average latency for a pair.
// The second return is false when no samples exist.
func (t *Tracker) AvgLatency(model, provider string) (time.Duration, bool) {
	t.mu.RLock()
	e, ok := t.entries[pairKey{model: model, provider: provider}]
	t.mu.RUnlock()
	if !ok {
		return 0, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ring.len() == 0 {
		return 0, false
	}
	return e.ring.avg(), true
}

// SuccessRate returns the lifetime success ratio for a pair.
// The second return is false when no events have been recorded.
func (t *Tracker) SuccessRate(model, provider string) (float64, bool) {
	t.mu.RLock()
	e, ok := t.entries[pairKey{model: model, provider: provider}]
	t.mu.RUnlock()
	if !ok {
		return 0, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	total := e.successes + e.failures
	if total == 0 {
		return 0, false
	}
	return float64(e.successes) / float64(total), true
}

// Snapshot returns a point-in-time view of one pair.
// The second return is false when the pair has no recorded history.
func (t *Tracker) Snapshot(model, provider string) (View, bool) {
	t.mu.RLock()
	e, ok := t.entries[pairKey{model: model, provider: provider}]
	t.mu.RUnlock()
	if !ok {
		return View{}, false
	}
	return t.view(e, model, provider), true
}

// SnapshotAll returns views of every tracked pair, ordered by model then
// provider for stable output.
func (t *Tracker) SnapshotAll() []View {
	t.mu.RLock()
	keys := make([]pairKey, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	t.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].model != keys[j].model {
			return keys[i].model < keys[j].model
		}
		return keys[i].provider < keys[j].provider
	})

	views := make([]View, 0, len(keys))
	for _, k := range keys {
		t.mu.RLock()
		e, ok := t.entries[k]
		t.mu.RUnlock()
		if !ok {
			continue
		}
		views = append(views, t.view(e, k.model, k.provider))
	}
	return views
}

// view builds a View under the entry lock.
func (t *Tracker) view(e *entry, model, provider string) View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return View{
		Model:             model,
		Provider:          provider,
		State:             e.state,
		Successes:         e.successes,
		Failures:          e.failures,
		FailureCount:      e.failureCount,
		SuccessCount:      e.successCount,
		SlowResponseCount: e.slowCount,
		AvgLatency:        e.ring.avg(),
		SampleCount:       e.ring.len(),
		LastSuccess:       e.lastSuccess,
		LastFailure:       e.lastFailure,
	}
}

// Known reports whether the pair has any recorded history.
func (t *Tracker) Known(model, provider string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[pairKey{model: model, provider: provider}]
	return ok
}

// Reset discards all tracked state. Every circuit returns to CLOSED with
// empty history.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[pairKey]*entry)
	t.logger.Info("health tracker reset")
}
