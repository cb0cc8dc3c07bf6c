package health

import "time"

// latencyRing is a fixed-capacity ring of latency samples.
// Not safe for concurrent use; callers hold the owning entry's lock.
type latencyRing struct {
	samples []time.Duration
	next    int
	full    bool
}

// newLatencyRing creates a ring retaining up to n samples.
func newLatencyRing(n int) *latencyRing {
	return &latencyRing{samples: make([]time.Duration, n)}
}

// add records one sample, evicting the oldest when full.
func (r *latencyRing) add(d time.Duration) {
	r.samples[r.next] = d
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.full = true
	}
}

// len returns the number of retained samples.
func (r *latencyRing) len() int {
	if r.full {
		return len(r.samples)
	}
	return r.next
}

// avg returns the mean over retained samples, zero when empty.
func (r *latencyRing) avg() time.Duration {
	n := r.len()
	if n == 0 {
		return 0
	}
	var sum time.Duration
	for i := 0; i < n; i++ {
		sum += r.samples[i]
	}
	return sum / time.Duration(n)
}

// reset discards all samples.
func (r *latencyRing) reset() {
	r.next = 0
	r.full = false
}
