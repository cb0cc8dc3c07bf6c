package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled turns metric recording on. When false all record calls
	// become no-ops.
	Enabled bool

	// Namespace is the metric name prefix.
	// Default: "meridian"
	Namespace string

	// Subsystem is the metric name subsystem.
	// Default: "gateway"
	Subsystem string

	// RequestDurationBuckets are histogram buckets for request latency
	// in seconds.
	RequestDurationBuckets []float64
}

// Collector manages metric registration and provides the recording
// interface used across the gateway.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	requestMetrics  *requestMetrics
	providerMetrics *providerMetrics
	costMetrics     *costMetrics
}

// NewCollector creates a metrics collector. If registry is nil a private
// registry is created.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &Config{Enabled: true}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "meridian"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "gateway"
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		// LLM request latencies run from sub-second to tens of seconds.
		cfg.RequestDurationBuckets = []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0}
	}

	c := &Collector{
		config:   cfg,
		registry: registry,
	}

	c.requestMetrics = newRequestMetrics(cfg, registry)
	c.providerMetrics = newProviderMetrics(cfg, registry)
	c.costMetrics = newCostMetrics(cfg, registry)

	return c
}

// RecordRequest records one completed gateway request.
// Status is one of "completed", "failed", "cancelled".
func (c *Collector) RecordRequest(provider, model, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.record(provider, model, status, duration)
}

// RecordAttempt records one provider attempt and its terminal error kind
// ("" for success).
func (c *Collector) RecordAttempt(provider, kind string) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.recordAttempt(provider, kind)
}

// RecordProviderLatency records the latency of one upstream call.
func (c *Collector) RecordProviderLatency(provider, model string, latency time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.recordLatency(provider, model, latency.Seconds())
}

// SetCircuitState publishes the circuit breaker state for a
// (model, provider) pair. The gauge encodes CLOSED=1, HALF_OPEN=0.5,
// OPEN=0.
func (c *Collector) SetCircuitState(provider, model, state string) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.setCircuitState(provider, model, state)
}

// RecordTokens records token usage for one request.
func (c *Collector) RecordTokens(provider, model string, inputTokens, outputTokens int) {
	if !c.config.Enabled {
		return
	}
	c.costMetrics.recordTokens(provider, model, inputTokens, outputTokens)
}

// RecordCost records attributed cost in USD for one request.
// Source is the pricing source the cost was computed from.
func (c *Collector) RecordCost(provider, model, source string, cost float64) {
	if !c.config.Enabled {
		return
	}
	c.costMetrics.recordCost(provider, model, source, cost)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
