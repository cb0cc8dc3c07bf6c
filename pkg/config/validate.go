package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validStrategies are the accepted routing strategies.
var validStrategies = map[string]bool{
	"priority": true,
	"cost":     true,
	"latency":  true,
	"balanced": true,
}

// Validate checks the configuration for errors. It is applied after
// defaults and again after environment overrides.
func Validate(cfg *Config) error {
	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}

	for slug, provider := range cfg.Providers {
		if strings.TrimSpace(slug) == "" {
			return fmt.Errorf("provider slug must not be empty")
		}
		if slug != strings.ToLower(slug) {
			return fmt.Errorf("provider slug %q must be lowercase", slug)
		}
		if provider.Type != "openai" {
			return fmt.Errorf("provider %q: unsupported type %q", slug, provider.Type)
		}
		if provider.BaseURL == "" {
			return fmt.Errorf("provider %q: base_url must not be empty", slug)
		}
		if _, err := url.Parse(provider.BaseURL); err != nil {
			return fmt.Errorf("provider %q: invalid base_url: %w", slug, err)
		}
		if provider.Timeout < 0 {
			return fmt.Errorf("provider %q: timeout must not be negative", slug)
		}
	}

	if !validStrategies[cfg.Routing.Strategy] {
		return fmt.Errorf("routing.strategy %q is not one of priority, cost, latency, balanced", cfg.Routing.Strategy)
	}
	if cfg.Routing.MaxAttempts < 1 {
		return fmt.Errorf("routing.max_attempts must be at least 1")
	}

	if cfg.Health.FailureThreshold < 1 {
		return fmt.Errorf("health.failure_threshold must be at least 1")
	}
	if cfg.Health.SuccessThreshold < 1 {
		return fmt.Errorf("health.success_threshold must be at least 1")
	}
	if cfg.Health.RecoveryTimeout <= 0 {
		return fmt.Errorf("health.recovery_timeout must be positive")
	}
	if cfg.Health.SlowResponseLimit < 1 {
		return fmt.Errorf("health.slow_response_limit must be at least 1")
	}
	if cfg.Health.LatencyWindow < 1 {
		return fmt.Errorf("health.latency_window must be at least 1")
	}

	switch cfg.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend %q is not one of sqlite, memory", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "sqlite" {
		switch cfg.Storage.SQLite.Driver {
		case "sqlite3", "sqlite":
		default:
			return fmt.Errorf("storage.sqlite.driver %q is not one of sqlite3, sqlite", cfg.Storage.SQLite.Driver)
		}
		if cfg.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage.sqlite.path must not be empty")
		}
	}

	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text", cfg.Telemetry.Logging.Format)
	}

	return nil
}
