package config

import "time"

// ApplyDefaults fills in default values for unset configuration fields.
// It is idempotent and applied before validation.
func ApplyDefaults(cfg *Config) {
	// Server
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 300 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	// Providers
	for slug, provider := range cfg.Providers {
		if provider.Type == "" {
			provider.Type = "openai"
		}
		if provider.CompletionPath == "" {
			provider.CompletionPath = "/v1/chat/completions"
		}
		if provider.CatalogPath == "" {
			provider.CatalogPath = "/v1/models"
		}
		if provider.Timeout == 0 {
			provider.Timeout = 120 * time.Second
		}
		if provider.MaxIdleConns == 0 {
			provider.MaxIdleConns = 100
		}
		cfg.Providers[slug] = provider
	}

	// Routing
	if cfg.Routing.Strategy == "" {
		cfg.Routing.Strategy = "priority"
	}
	if cfg.Routing.MaxAttempts == 0 {
		cfg.Routing.MaxAttempts = 3
	}

	// Health
	if cfg.Health.FailureThreshold == 0 {
		cfg.Health.FailureThreshold = 5
	}
	if cfg.Health.RecoveryTimeout == 0 {
		cfg.Health.RecoveryTimeout = 300 * time.Second
	}
	if cfg.Health.SuccessThreshold == 0 {
		cfg.Health.SuccessThreshold = 3
	}
	if cfg.Health.SlowResponseThreshold == 0 {
		cfg.Health.SlowResponseThreshold = 30 * time.Second
	}
	if cfg.Health.SlowResponseLimit == 0 {
		cfg.Health.SlowResponseLimit = 3
	}
	if cfg.Health.LatencyWindow == 0 {
		cfg.Health.LatencyWindow = 100
	}

	// Catalog
	if cfg.Catalog.SyncSchedule == "" {
		cfg.Catalog.SyncSchedule = "0 */6 * * *"
	}
	if cfg.Catalog.SyncEnabled && !cfg.Catalog.SyncOnStartup {
		cfg.Catalog.SyncOnStartup = true
	}
	if cfg.Catalog.DisableMissing == nil {
		enabled := true
		cfg.Catalog.DisableMissing = &enabled
	}

	// Pricing
	if cfg.Pricing.RefreshInterval == 0 {
		cfg.Pricing.RefreshInterval = 15 * time.Minute
	}

	// Storage
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "data/meridian.db"
	}
	if cfg.Storage.SQLite.Driver == "" {
		cfg.Storage.SQLite.Driver = "sqlite3"
	}
	if cfg.Storage.SQLite.MaxOpenConns == 0 {
		cfg.Storage.SQLite.MaxOpenConns = 10
	}
	if cfg.Storage.SQLite.MaxIdleConns == 0 {
		cfg.Storage.SQLite.MaxIdleConns = 5
	}
	if cfg.Storage.SQLite.WALMode == nil {
		enabled := true
		cfg.Storage.SQLite.WALMode = &enabled
	}
	if cfg.Storage.SQLite.BusyTimeout == 0 {
		cfg.Storage.SQLite.BusyTimeout = 5 * time.Second
	}

	// Telemetry
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "meridian"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "gateway"
	}
}
