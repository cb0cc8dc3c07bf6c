package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/meridian/pkg/config"
	"mercator-hq/meridian/pkg/failover"
	"mercator-hq/meridian/pkg/health"
	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/providers"
	"mercator-hq/meridian/pkg/registry"
	"mercator-hq/meridian/pkg/storage"
	"mercator-hq/meridian/pkg/telemetry/metrics"
	"mercator-hq/meridian/pkg/tokens"
)

// Gateway orchestrates request execution: model resolution, provider
// selection with failover, usage and cost accounting, metrics, and
// outcome persistence.
type Gateway struct {
	registry  *registry.Registry
	tracker   *health.Tracker
	executor  *failover.Executor
	pricing   *pricing.Resolver
	store     storage.Store
	estimator tokens.Estimator
	collector *metrics.Collector
	logger    *slog.Logger
	now       func() time.Time

	defaultStrategy registry.Strategy
	maxAttempts     int

	mu       sync.RWMutex
	adapters map[string]providers.Adapter
}

// GatewayConfig wires the Gateway's collaborators.
type GatewayConfig struct {
	Registry *registry.Registry
	Tracker  *health.Tracker
	Pricing  *pricing.Resolver

	// Store persists finalized requests. Nil disables persistence.
	Store storage.Store

	// Estimator backs local token estimation when a provider omits
	// usage. Nil disables estimation (usage stays zero, pricing source
	// becomes unknown).
	Estimator tokens.Estimator

	// Collector records metrics. Nil disables metric recording.
	Collector *metrics.Collector

	// DefaultStrategy orders provider plans when a request does not name
	// one. Default: priority.
	DefaultStrategy registry.Strategy

	// MaxAttempts caps the provider plan per request. Default: 3.
	MaxAttempts int
}

// New creates a Gateway.
func New(cfg GatewayConfig) *Gateway {
	strategy := cfg.DefaultStrategy
	if strategy == "" {
		strategy = registry.StrategyPriority
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = failover.DefaultMaxAttempts
	}
	return &Gateway{
		registry:        cfg.Registry,
		tracker:         cfg.Tracker,
		executor:        failover.NewExecutor(cfg.Registry, cfg.Tracker),
		pricing:         cfg.Pricing,
		store:           cfg.Store,
		estimator:       cfg.Estimator,
		collector:       cfg.Collector,
		logger:          slog.Default().With("component", "gateway"),
		now:             time.Now,
		defaultStrategy: strategy,
		maxAttempts:     maxAttempts,
		adapters:        make(map[string]providers.Adapter),
	}
}

// RegisterProvider attaches an adapter for a provider slug. Bindings whose
// provider has no adapter are skipped at execution time.
func (g *Gateway) RegisterProvider(slug string, adapter providers.Adapter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adapters[slug] = adapter
	g.logger.Info("provider registered", "provider", slug)
}

// Adapter returns the adapter for a provider slug.
func (g *Gateway) Adapter(slug string) (providers.Adapter, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	adapter, ok := g.adapters[slug]
	return adapter, ok
}

// Providers lists the registered provider slugs.
func (g *Gateway) Providers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.adapters))
	for slug := range g.adapters {
		out = append(out, slug)
	}
	return out
}

// Close closes every registered adapter.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var firstErr error
	for slug, adapter := range g.adapters {
		if err := adapter.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close adapter %q: %w", slug, err)
		}
	}
	g.adapters = make(map[string]providers.Adapter)
	return firstErr
}

// BuildAdapters constructs adapters for every enabled provider in the
// configuration.
func BuildAdapters(cfgs map[string]config.ProviderConfig) (map[string]providers.Adapter, error) {
	adapters := make(map[string]providers.Adapter, len(cfgs))
	for slug, cfg := range cfgs {
		if !cfg.IsEnabled() {
			continue
		}
		switch cfg.Type {
		case "openai", "":
			adapter, err := providers.NewOpenAIAdapter(providers.AdapterConfig{
				Slug:           slug,
				BaseURL:        cfg.BaseURL,
				APIKey:         cfg.APIKey,
				CompletionPath: cfg.CompletionPath,
				Timeout:        cfg.Timeout,
				MaxIdleConns:   cfg.MaxIdleConns,
				ExtraHeaders:   cfg.ExtraHeaders,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to build adapter for %q: %w", slug, err)
			}
			adapters[slug] = adapter
		default:
			return nil, fmt.Errorf("provider %q: unsupported adapter type %q", slug, cfg.Type)
		}
	}
	return adapters, nil
}

// failoverOptions merges per-request options with gateway defaults.
func (g *Gateway) failoverOptions(opts Options) failover.Options {
	strategy := opts.Strategy
	if strategy == "" {
		strategy = g.defaultStrategy
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = g.maxAttempts
	}
	return failover.Options{
		Strategy:         strategy,
		Preferred:        opts.Preferred,
		RequiredFeatures: opts.RequiredFeatures,
		MaxCostPer1K:     opts.MaxCostPer1K,
		Excluded:         opts.Excluded,
		MaxAttempts:      maxAttempts,
	}
}
