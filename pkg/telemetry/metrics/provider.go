package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// providerMetrics tracks per-provider attempts, latency, and circuit
// breaker state.
type providerMetrics struct {
	attempts *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	circuit  *prometheus.GaugeVec
}

func newProviderMetrics(cfg *Config, registry *prometheus.Registry) *providerMetrics {
	m := &providerMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_attempts_total",
				Help:      "Total provider attempts by provider and error kind (empty kind = success).",
			},
			[]string{"provider", "kind"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_latency_seconds",
				Help:      "Upstream call latency in seconds by provider and model.",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),
		circuit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_circuit_state",
				Help:      "Circuit breaker state per (model, provider): 1=CLOSED, 0.5=HALF_OPEN, 0=OPEN.",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(m.attempts, m.latency, m.circuit)
	return m
}

func (m *providerMetrics) recordAttempt(provider, kind string) {
	m.attempts.WithLabelValues(provider, kind).Inc()
}

func (m *providerMetrics) recordLatency(provider, model string, seconds float64) {
	m.latency.WithLabelValues(provider, model).Observe(seconds)
}

func (m *providerMetrics) setCircuitState(provider, model, state string) {
	var value float64
	switch state {
	case "CLOSED":
		value = 1
	case "HALF_OPEN":
		value = 0.5
	case "OPEN":
		value = 0
	default:
		return
	}
	m.circuit.WithLabelValues(provider, model).Set(value)
}
