package health

import (
	"sync"
	"testing"
	"time"
)

// testClock is a manually advanced time source.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(clock *testClock) *Tracker {
	return NewTracker(Config{}, WithClock(clock.Now))
}

func TestTrackerUnknownPairAvailable(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	if !tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("unobserved pair should be available")
	}
	if got := tracker.State("gpt-4o", "openai"); got != StateClosed {
		t.Errorf("State() = %s, want %s", got, StateClosed)
	}
	if tracker.Known("gpt-4o", "openai") {
		t.Error("IsAvailable must not create tracking state")
	}
}

func TestTrackerOpensAfterConsecutiveFailures(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	for i := 0; i < 4; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
		if !tracker.IsAvailable("gpt-4o", "openai") {
			t.Fatalf("circuit opened after %d failures, threshold is 5", i+1)
		}
	}

	tracker.RecordFailure("gpt-4o", "openai")
	if tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("circuit should be open after 5 consecutive failures")
	}
	if got := tracker.State("gpt-4o", "openai"); got != StateOpen {
		t.Errorf("State() = %s, want %s", got, StateOpen)
	}
}

func TestTrackerSuccessDecrementsFailureCount(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	// Interleaved successes keep the consecutive count below threshold.
	for i := 0; i < 10; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
		tracker.RecordFailure("gpt-4o", "openai")
		tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	}

	if !tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("circuit should stay closed when successes interleave failures")
	}
}

func TestTrackerRecoveryCycle(t *testing.T) {
	clock := newTestClock()
	tracker := newTestTracker(clock)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
	}
	if tracker.IsAvailable("gpt-4o", "openai") {
		t.Fatal("circuit should be open")
	}

	// Just inside the recovery window: still blocked.
	clock.Advance(299 * time.Second)
	if tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("circuit should stay open within the recovery timeout")
	}

	// Past the window: the availability check transitions to HALF_OPEN.
	clock.Advance(2 * time.Second)
	if !tracker.IsAvailable("gpt-4o", "openai") {
		t.Fatal("circuit should admit probes after the recovery timeout")
	}
	if got := tracker.State("gpt-4o", "openai"); got != StateHalfOpen {
		t.Fatalf("State() = %s, want %s", got, StateHalfOpen)
	}

	// Three probe successes close the circuit.
	tracker.RecordSuccess("gpt-4o", "openai", 50*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 50*time.Millisecond)
	if got := tracker.State("gpt-4o", "openai"); got != StateHalfOpen {
		t.Fatalf("State() after 2 probe successes = %s, want %s", got, StateHalfOpen)
	}
	tracker.RecordSuccess("gpt-4o", "openai", 50*time.Millisecond)
	if got := tracker.State("gpt-4o", "openai"); got != StateClosed {
		t.Errorf("State() after 3 probe successes = %s, want %s", got, StateClosed)
	}
}

func TestTrackerHalfOpenProbeFailureReopens(t *testing.T) {
	clock := newTestClock()
	tracker := newTestTracker(clock)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
	}
	clock.Advance(301 * time.Second)
	if !tracker.IsAvailable("gpt-4o", "openai") {
		t.Fatal("circuit should be half-open")
	}

	tracker.RecordSuccess("gpt-4o", "openai", 50*time.Millisecond)
	tracker.RecordFailure("gpt-4o", "openai")

	if got := tracker.State("gpt-4o", "openai"); got != StateOpen {
		t.Errorf("State() = %s, want %s after probe failure", got, StateOpen)
	}
	if tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("reopened circuit should block until another recovery timeout")
	}
}

func TestTrackerSlowResponsesOpenCircuit(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	slow := 31 * time.Second
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	if got := tracker.State("gpt-4o", "openai"); got != StateClosed {
		t.Fatalf("State() after 2 slow responses = %s, want %s", got, StateClosed)
	}

	tracker.RecordSuccess("gpt-4o", "openai", slow)
	if got := tracker.State("gpt-4o", "openai"); got != StateOpen {
		t.Errorf("State() after 3 consecutive slow responses = %s, want %s", got, StateOpen)
	}
}

func TestTrackerFastResponseResetsSlowCount(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	slow := 31 * time.Second
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	tracker.RecordSuccess("gpt-4o", "openai", 200*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	tracker.RecordSuccess("gpt-4o", "openai", slow)

	if got := tracker.State("gpt-4o", "openai"); got != StateClosed {
		t.Errorf("State() = %s, want %s: fast response should reset the slow streak", got, StateClosed)
	}
}

func TestTrackerHalfOpenSlowSuccessesStillRecover(t *testing.T) {
	clock := newTestClock()
	tracker := newTestTracker(clock)

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
	}
	clock.Advance(301 * time.Second)
	if !tracker.IsAvailable("gpt-4o", "openai") {
		t.Fatal("circuit should be half-open")
	}

	// Slow but reliable: successes count toward recovery regardless of latency.
	slow := 31 * time.Second
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	tracker.RecordSuccess("gpt-4o", "openai", slow)
	tracker.RecordSuccess("gpt-4o", "openai", slow)

	if got := tracker.State("gpt-4o", "openai"); got != StateClosed {
		t.Errorf("State() = %s, want %s", got, StateClosed)
	}
}

func TestTrackerPairsIndependent(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
	}

	if tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("failed pair should be blocked")
	}
	if !tracker.IsAvailable("gpt-4o", "fireworks") {
		t.Error("same model on another provider should be unaffected")
	}
	if !tracker.IsAvailable("claude-sonnet", "openai") {
		t.Error("another model on the same provider should be unaffected")
	}
}

func TestTrackerAvgLatency(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	if _, ok := tracker.AvgLatency("gpt-4o", "openai"); ok {
		t.Error("AvgLatency should report no samples for unknown pair")
	}

	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 300*time.Millisecond)

	avg, ok := tracker.AvgLatency("gpt-4o", "openai")
	if !ok {
		t.Fatal("AvgLatency should have samples")
	}
	if avg != 200*time.Millisecond {
		t.Errorf("AvgLatency = %s, want 200ms", avg)
	}
}

func TestTrackerLatencyWindowEviction(t *testing.T) {
	tracker := NewTracker(Config{LatencyWindow: 3}, WithClock(newTestClock().Now))

	tracker.RecordSuccess("gpt-4o", "openai", 1*time.Second)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)

	avg, ok := tracker.AvgLatency("gpt-4o", "openai")
	if !ok {
		t.Fatal("AvgLatency should have samples")
	}
	if avg != 100*time.Millisecond {
		t.Errorf("AvgLatency = %s, want 100ms after the 1s sample is evicted", avg)
	}
}

func TestTrackerSuccessRate(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	if _, ok := tracker.SuccessRate("gpt-4o", "openai"); ok {
		t.Error("SuccessRate should report no data for unknown pair")
	}

	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordFailure("gpt-4o", "openai")

	rate, ok := tracker.SuccessRate("gpt-4o", "openai")
	if !ok {
		t.Fatal("SuccessRate should have data")
	}
	if rate != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", rate)
	}
}

func TestTrackerRecoveryResetsLatencyWindow(t *testing.T) {
	clock := newTestClock()
	tracker := newTestTracker(clock)

	tracker.RecordSuccess("gpt-4o", "openai", 10*time.Second)
	for i := 0; i < 5; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
	}
	clock.Advance(301 * time.Second)
	tracker.IsAvailable("gpt-4o", "openai")

	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)
	tracker.RecordSuccess("gpt-4o", "openai", 100*time.Millisecond)

	if got := tracker.State("gpt-4o", "openai"); got != StateClosed {
		t.Fatalf("State() = %s, want %s", got, StateClosed)
	}

	// Only the post-recovery samples (recorded after the reset plus the
	// closing probes themselves) should remain; the 10s outlier is gone.
	avg, ok := tracker.AvgLatency("gpt-4o", "openai")
	if !ok {
		t.Fatal("AvgLatency should have samples")
	}
	if avg > time.Second {
		t.Errorf("AvgLatency = %s, pre-outage samples should be discarded on recovery", avg)
	}
}

func TestTrackerSnapshotAllOrdering(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	tracker.RecordSuccess("m2", "p1", time.Millisecond)
	tracker.RecordSuccess("m1", "p2", time.Millisecond)
	tracker.RecordSuccess("m1", "p1", time.Millisecond)

	views := tracker.SnapshotAll()
	if len(views) != 3 {
		t.Fatalf("SnapshotAll() returned %d views, want 3", len(views))
	}
	want := []struct{ model, provider string }{
		{"m1", "p1"}, {"m1", "p2"}, {"m2", "p1"},
	}
	for i, w := range want {
		if views[i].Model != w.model || views[i].Provider != w.provider {
			t.Errorf("views[%d] = %s/%s, want %s/%s", i, views[i].Model, views[i].Provider, w.model, w.provider)
		}
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	for i := 0; i < 5; i++ {
		tracker.RecordFailure("gpt-4o", "openai")
	}
	if tracker.IsAvailable("gpt-4o", "openai") {
		t.Fatal("circuit should be open")
	}

	tracker.Reset()

	if !tracker.IsAvailable("gpt-4o", "openai") {
		t.Error("reset should return circuits to closed")
	}
	if tracker.Known("gpt-4o", "openai") {
		t.Error("reset should discard history")
	}
}

func TestTrackerConcurrentAccess(t *testing.T) {
	tracker := newTestTracker(newTestClock())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if j%3 == 0 {
					tracker.RecordFailure("gpt-4o", "openai")
				} else {
					tracker.RecordSuccess("gpt-4o", "openai", time.Duration(j)*time.Millisecond)
				}
				tracker.IsAvailable("gpt-4o", "openai")
				tracker.Snapshot("gpt-4o", "openai")
			}
		}(i)
	}
	wg.Wait()

	view, ok := tracker.Snapshot("gpt-4o", "openai")
	if !ok {
		t.Fatal("pair should be tracked")
	}
	if view.Successes+view.Failures != 8*200 {
		t.Errorf("recorded %d events, want %d", view.Successes+view.Failures, 8*200)
	}
}
