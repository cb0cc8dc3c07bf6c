package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/meridian/pkg/catalog"
	"mercator-hq/meridian/pkg/config"
	"mercator-hq/meridian/pkg/gateway"
	"mercator-hq/meridian/pkg/health"
	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
	"mercator-hq/meridian/pkg/storage"
	"mercator-hq/meridian/pkg/telemetry/logging"
	"mercator-hq/meridian/pkg/telemetry/metrics"
	"mercator-hq/meridian/pkg/tokens"
)

// app holds the wired gateway runtime shared across commands.
type app struct {
	cfg       *config.Config
	registry  *registry.Registry
	tracker   *health.Tracker
	resolver  *pricing.Resolver
	store     storage.Store
	gateway   *gateway.Gateway
	ingester  *catalog.Ingester
	collector *metrics.Collector
}

// buildApp loads configuration and wires the full runtime.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, err
	}

	logLevel := cfg.Telemetry.Logging.Level
	if verbose {
		logLevel = "debug"
	}
	if _, err := logging.Setup(logging.Config{
		Level:     logLevel,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	}); err != nil {
		return nil, err
	}

	store, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	tracker := health.NewTracker(health.Config{
		FailureThreshold:      cfg.Health.FailureThreshold,
		RecoveryTimeout:       cfg.Health.RecoveryTimeout,
		SuccessThreshold:      cfg.Health.SuccessThreshold,
		SlowResponseThreshold: cfg.Health.SlowResponseThreshold,
		SlowResponseLimit:     cfg.Health.SlowResponseLimit,
		LatencyWindow:         cfg.Health.LatencyWindow,
	})

	// Persisted models come back first so curated config wins on merge.
	if models, err := store.ListCanonicalModels(ctx); err == nil {
		for _, model := range models {
			if err := reg.Register(model); err != nil {
				slog.Warn("failed to restore persisted model", "id", model.ID, "error", err)
			}
		}
	}

	if cfg.Models.Path != "" {
		file, err := config.LoadModelsFile(cfg.Models.Path)
		if err != nil {
			return nil, err
		}
		if err := catalog.ApplyCurated(ctx, file, reg, store); err != nil {
			return nil, err
		}
	}

	resolver := pricing.NewResolver(store, reg)
	if err := resolver.Refresh(ctx); err != nil {
		slog.Warn("initial pricing refresh failed", "error", err)
	}
	if cfg.Pricing.OverridesPath != "" {
		file, err := config.LoadOverridesFile(cfg.Pricing.OverridesPath)
		if err != nil {
			return nil, err
		}
		records, err := catalog.OverrideRecords(file, time.Now())
		if err != nil {
			return nil, err
		}
		resolver.SetManualOverrides(records)
	}

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		collector = metrics.NewCollector(&metrics.Config{
			Enabled:   true,
			Namespace: cfg.Telemetry.Metrics.Namespace,
			Subsystem: cfg.Telemetry.Metrics.Subsystem,
		}, nil)
	}

	estimator, err := buildEstimator()
	if err != nil {
		return nil, err
	}

	gw := gateway.New(gateway.GatewayConfig{
		Registry:        reg,
		Tracker:         tracker,
		Pricing:         resolver,
		Store:           store,
		Estimator:       estimator,
		Collector:       collector,
		DefaultStrategy: registry.Strategy(cfg.Routing.Strategy),
		MaxAttempts:     cfg.Routing.MaxAttempts,
	})

	adapters, err := gateway.BuildAdapters(cfg.Providers)
	if err != nil {
		return nil, err
	}
	for slug, adapter := range adapters {
		gw.RegisterProvider(slug, adapter)
	}

	ingester := catalog.NewIngester(reg, store,
		catalog.WithDisableMissing(cfg.Catalog.DisableMissing == nil || *cfg.Catalog.DisableMissing),
	)
	for slug, provider := range cfg.Providers {
		if !provider.IsEnabled() {
			continue
		}
		ingester.AddFetcher(catalog.NewHTTPFetcher(catalog.HTTPFetcherConfig{
			Provider: slug,
			BaseURL:  provider.BaseURL,
			Path:     provider.CatalogPath,
			APIKey:   provider.APIKey,
		}))
	}

	return &app{
		cfg:       cfg,
		registry:  reg,
		tracker:   tracker,
		resolver:  resolver,
		store:     store,
		gateway:   gw,
		ingester:  ingester,
		collector: collector,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if a.gateway != nil {
		if err := a.gateway.Close(); err != nil {
			slog.Warn("failed to close gateway", "error", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			slog.Warn("failed to close storage", "error", err)
		}
	}
}

// buildStore constructs the configured storage backend.
func buildStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		return storage.NewSQLiteStore(&storage.SQLiteConfig{
			Path:         cfg.Storage.SQLite.Path,
			Driver:       cfg.Storage.SQLite.Driver,
			MaxOpenConns: cfg.Storage.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Storage.SQLite.MaxIdleConns,
			WALMode:      cfg.Storage.SQLite.WALMode == nil || *cfg.Storage.SQLite.WALMode,
			BusyTimeout:  cfg.Storage.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}

// buildEstimator prefers the BPE tokenizer and falls back to character
// ratios when tokenizer data is unavailable.
func buildEstimator() (tokens.Estimator, error) {
	estimator, err := tokens.NewTiktokenEstimator()
	if err != nil {
		slog.Warn("BPE tokenizer unavailable, using character-ratio estimation", "error", err)
		return tokens.NewSimpleEstimator(), nil
	}
	return estimator, nil
}
