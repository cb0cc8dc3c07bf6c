package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// costMetrics tracks token usage and attributed cost.
type costMetrics struct {
	tokens *prometheus.CounterVec
	cost   *prometheus.CounterVec
}

func newCostMetrics(cfg *Config, registry *prometheus.Registry) *costMetrics {
	m := &costMetrics{
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tokens_total",
				Help:      "Total tokens processed by provider, model, and direction.",
			},
			[]string{"provider", "model", "direction"},
		),
		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cost_usd_total",
				Help:      "Total attributed cost in USD by provider, model, and pricing source.",
			},
			[]string{"provider", "model", "source"},
		),
	}

	registry.MustRegister(m.tokens, m.cost)
	return m
}

func (m *costMetrics) recordTokens(provider, model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		m.tokens.WithLabelValues(provider, model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.tokens.WithLabelValues(provider, model, "output").Add(float64(outputTokens))
	}
}

func (m *costMetrics) recordCost(provider, model, source string, cost float64) {
	if cost <= 0 {
		return
	}
	m.cost.WithLabelValues(provider, model, source).Add(cost)
}
