package health

import "time"

// CircuitState is the state of one circuit breaker.
type CircuitState string

const (
	// StateClosed admits requests. Failures accumulate toward opening.
	StateClosed CircuitState = "CLOSED"

	// StateOpen blocks requests until the recovery timeout elapses.
	StateOpen CircuitState = "OPEN"

	// StateHalfOpen admits probe requests after the recovery timeout.
	// Enough successes close the circuit; one failure reopens it.
	StateHalfOpen CircuitState = "HALF_OPEN"
)

// Config contains the circuit breaker and slow-response thresholds.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens a
	// closed circuit.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// RecoveryTimeout is how long an open circuit blocks requests before
	// admitting probe traffic.
	// Default: 300s
	RecoveryTimeout time.Duration `yaml:"recovery_timeout"`

	// SuccessThreshold is the probe-success count that closes a half-open
	// circuit.
	// Default: 3
	SuccessThreshold int `yaml:"success_threshold"`

	// SlowResponseThreshold is the latency above which a response counts
	// as slow.
	// Default: 30s
	SlowResponseThreshold time.Duration `yaml:"slow_response_threshold"`

	// SlowResponseLimit is the consecutive slow-response count that opens
	// a closed circuit.
	// Default: 3
	SlowResponseLimit int `yaml:"slow_response_limit"`

	// LatencyWindow is the number of latency samples retained per pair.
	// Default: 100
	LatencyWindow int `yaml:"latency_window"`
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:      5,
		RecoveryTimeout:       300 * time.Second,
		SuccessThreshold:      3,
		SlowResponseThreshold: 30 * time.Second,
		SlowResponseLimit:     3,
		LatencyWindow:         100,
	}
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = d.RecoveryTimeout
	}
	if c.SuccessThreshold <= 0 {
		c.SuccessThreshold = d.SuccessThreshold
	}
	if c.SlowResponseThreshold <= 0 {
		c.SlowResponseThreshold = d.SlowResponseThreshold
	}
	if c.SlowResponseLimit <= 0 {
		c.SlowResponseLimit = d.SlowResponseLimit
	}
	if c.LatencyWindow <= 0 {
		c.LatencyWindow = d.LatencyWindow
	}
}

// View is a point-in-time snapshot of one (model, provider) pair.
type View struct {
	// Model is the canonical model id.
	Model string

	// Provider is the provider slug.
	Provider string

	// State is the circuit state at snapshot time.
	State CircuitState

	// Successes and Failures are lifetime totals for the pair.
	Successes int64
	Failures  int64

	// FailureCount is the current consecutive-failure count (CLOSED state).
	FailureCount int

	// SuccessCount is the current probe-success count (HALF_OPEN state).
	SuccessCount int

	// SlowResponseCount is the current consecutive slow-response count.
	SlowResponseCount int

	// AvgLatency is the mean over the retained latency samples.
	// Zero when no samples have been recorded.
	AvgLatency time.Duration

	// SampleCount is the number of retained latency samples.
	SampleCount int

	// LastSuccess and LastFailure are the most recent event timestamps.
	// Zero values mean the event never occurred.
	LastSuccess time.Time
	LastFailure time.Time
}

// SuccessRate returns the lifetime success ratio in [0, 1].
// Returns 1 when no events have been recorded.
func (v View) SuccessRate() float64 {
	total := v.Successes + v.Failures
	if total == 0 {
		return 1
	}
	return float64(v.Successes) / float64(total)
}
