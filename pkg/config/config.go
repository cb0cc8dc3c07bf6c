package config

import (
	"time"
)

// Config is the root configuration for the Meridian gateway.
type Config struct {
	// Server contains the HTTP server configuration.
	Server ServerConfig `yaml:"server"`

	// Providers maps provider slugs to their upstream configuration.
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Routing controls provider selection and failover.
	Routing RoutingConfig `yaml:"routing"`

	// Health controls the circuit breaker thresholds.
	Health HealthConfig `yaml:"health"`

	// Catalog controls periodic provider catalog synchronization.
	Catalog CatalogConfig `yaml:"catalog"`

	// Models references the curated canonical model file.
	Models ModelsConfig `yaml:"models"`

	// Pricing references the manual pricing override file.
	Pricing PricingConfig `yaml:"pricing"`

	// Storage configures durable persistence.
	Storage StorageConfig `yaml:"storage"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains the HTTP server configuration.
type ServerConfig struct {
	// ListenAddress is the address the gateway listens on.
	// Default: ":8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Streaming responses need this generous.
	// Default: 300s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ProviderConfig contains upstream configuration for one provider.
type ProviderConfig struct {
	// Type selects the adapter implementation. Currently "openai"
	// (OpenAI-compatible chat completions) is supported.
	// Default: "openai"
	Type string `yaml:"type"`

	// BaseURL is the upstream API base URL.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the upstream. May reference an
	// environment variable via MERIDIAN_PROVIDERS_<SLUG>_API_KEY.
	APIKey string `yaml:"api_key"`

	// CompletionPath overrides the chat completions path.
	// Default: "/v1/chat/completions"
	CompletionPath string `yaml:"completion_path"`

	// CatalogPath overrides the model listing path used by catalog sync.
	// Default: "/v1/models"
	CatalogPath string `yaml:"catalog_path"`

	// Timeout is the per-request upstream timeout.
	// Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// Enabled gates the provider. Disabled providers are not registered.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// MaxIdleConns caps idle connections in the HTTP transport.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// ExtraHeaders are added to every upstream request.
	ExtraHeaders map[string]string `yaml:"extra_headers"`
}

// IsEnabled reports whether the provider is enabled, defaulting to true
// when the field is omitted.
func (p ProviderConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// RoutingConfig controls provider selection and failover.
type RoutingConfig struct {
	// Strategy is the default selection strategy: "priority", "cost",
	// "latency", or "balanced".
	// Default: "priority"
	Strategy string `yaml:"strategy"`

	// MaxAttempts caps the number of providers tried per request.
	// Default: 3
	MaxAttempts int `yaml:"max_attempts"`
}

// HealthConfig controls the circuit breaker.
type HealthConfig struct {
	// FailureThreshold is the consecutive failure count that opens a
	// circuit.
	// Default: 5
	FailureThreshold int `yaml:"failure_threshold"`

	// RecoveryTimeout is how long an open circuit waits before probing.
	// Default: 300s
	RecoveryTimeout time.Duration `yaml:"recovery_timeout"`

	// SuccessThreshold is the consecutive success count that closes a
	// half-open circuit.
	// Default: 3
	SuccessThreshold int `yaml:"success_threshold"`

	// SlowResponseThreshold marks a successful response as slow.
	// Default: 30s
	SlowResponseThreshold time.Duration `yaml:"slow_response_threshold"`

	// SlowResponseLimit is the consecutive slow response count that opens
	// a circuit.
	// Default: 3
	SlowResponseLimit int `yaml:"slow_response_limit"`

	// LatencyWindow is the rolling latency sample size per pair.
	// Default: 100
	LatencyWindow int `yaml:"latency_window"`
}

// CatalogConfig controls provider catalog synchronization.
type CatalogConfig struct {
	// SyncEnabled turns the periodic sync scheduler on.
	// Default: false
	SyncEnabled bool `yaml:"sync_enabled"`

	// SyncSchedule is a cron expression for periodic sync.
	// Default: "0 */6 * * *" (every six hours)
	SyncSchedule string `yaml:"sync_schedule"`

	// SyncOnStartup runs one sync pass during startup.
	// Default: true when SyncEnabled
	SyncOnStartup bool `yaml:"sync_on_startup"`

	// DisableMissing disables bindings whose native model disappeared
	// from the provider catalog, instead of deleting them.
	// Default: true
	DisableMissing *bool `yaml:"disable_missing"`
}

// ModelsConfig references the curated canonical model file.
type ModelsConfig struct {
	// Path is the curated models YAML file. Empty disables curated
	// loading.
	Path string `yaml:"path"`

	// Watch reloads the file on change.
	// Default: false
	Watch bool `yaml:"watch"`
}

// PricingConfig references the manual pricing override file.
type PricingConfig struct {
	// OverridesPath is the manual pricing overrides YAML file.
	OverridesPath string `yaml:"overrides_path"`

	// RefreshInterval re-resolves the pricing snapshot from storage.
	// Default: 15m
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// StorageConfig configures durable persistence.
type StorageConfig struct {
	// Backend selects the storage implementation: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig configures the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/meridian.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver: "sqlite3" (cgo) or
	// "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is the wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Enabled turns metric recording and the endpoint on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the exposition endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "meridian"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric name subsystem.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`
}

// MetricsEnabled reports whether metrics are enabled, defaulting to true.
func (m MetricsConfig) MetricsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
