package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// Driver selects the database/sql driver: "sqlite3" (mattn, cgo) or
	// "sqlite" (modernc, pure Go).
	// Default: "sqlite3"
	Driver string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// WALMode enables Write-Ahead Logging for better concurrency.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/meridian.db",
		Driver:       "sqlite3",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens (and if needed initializes) a SQLite database.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite3"
	}

	logger := slog.Default().With("component", "storage.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", config.Path, err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStore{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"path", config.Path,
		"driver", config.Driver,
		"wal_mode", config.WALMode,
	)

	return s, nil
}

// initialize sets up pragmas and the schema.
func (s *SQLiteStore) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", SchemaVersion,
	); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// SaveRequest persists one finalized request outcome.
func (s *SQLiteStore) SaveRequest(ctx context.Context, rec *RequestRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO chat_completion_requests (
			id, canonical_id, provider, native_id,
			input_tokens, output_tokens,
			input_cost, output_cost, total_cost, pricing_source,
			status, error, attempts, processing_time_ms, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.CanonicalID, rec.Provider, rec.NativeID,
		rec.InputTokens, rec.OutputTokens,
		rec.InputCost, rec.OutputCost, rec.TotalCost, string(rec.PricingSource),
		string(rec.Status), rec.Error, rec.Attempts, rec.ProcessingTimeMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save request %q: %w", rec.ID, err)
	}
	return nil
}

// ListRequests returns the most recent request records, newest first.
func (s *SQLiteStore) ListRequests(ctx context.Context, limit int) ([]RequestRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, canonical_id, provider, native_id,
		       input_tokens, output_tokens,
		       input_cost, output_cost, total_cost, pricing_source,
		       status, error, attempts, processing_time_ms, created_at
		FROM chat_completion_requests
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var out []RequestRecord
	for rows.Next() {
		var rec RequestRecord
		var source, status sql.NullString
		var errMsg, attempts sql.NullString
		var processingMs sql.NullInt64
		if err := rows.Scan(
			&rec.ID, &rec.CanonicalID, &rec.Provider, &rec.NativeID,
			&rec.InputTokens, &rec.OutputTokens,
			&rec.InputCost, &rec.OutputCost, &rec.TotalCost, &source,
			&status, &errMsg, &attempts, &processingMs, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request row: %w", err)
		}
		rec.PricingSource = pricing.Source(source.String)
		rec.Status = RequestStatus(status.String)
		rec.Error = errMsg.String
		rec.Attempts = attempts.String
		rec.ProcessingTimeMs = processingMs.Int64
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertModelPricing inserts or replaces one pricing record.
func (s *SQLiteStore) UpsertModelPricing(ctx context.Context, rec pricing.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO model_pricing (
			canonical_id, provider, native_id,
			input_price, output_price, source, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.CanonicalID, rec.Provider, rec.NativeID,
		rec.InputPrice, rec.OutputPrice, string(rec.Source), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pricing for %q: %w", rec.CanonicalID, err)
	}
	return nil
}

// ListModelPricing returns all pricing records.
func (s *SQLiteStore) ListModelPricing(ctx context.Context) ([]pricing.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT canonical_id, provider, native_id,
		       input_price, output_price, source, updated_at
		FROM model_pricing`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing: %w", err)
	}
	defer rows.Close()

	var out []pricing.Record
	for rows.Next() {
		var rec pricing.Record
		var source string
		if err := rows.Scan(
			&rec.CanonicalID, &rec.Provider, &rec.NativeID,
			&rec.InputPrice, &rec.OutputPrice, &source, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pricing row: %w", err)
		}
		rec.Source = pricing.Source(source)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// UpsertCanonicalModel persists the durable form of a canonical model.
// Bindings, modalities, features, and aliases are stored as JSON.
func (s *SQLiteStore) UpsertCanonicalModel(ctx context.Context, model registry.CanonicalModel) error {
	bindings, err := json.Marshal(model.Bindings)
	if err != nil {
		return fmt.Errorf("failed to marshal bindings for %q: %w", model.ID, err)
	}
	modalities, err := json.Marshal(model.Modalities)
	if err != nil {
		return fmt.Errorf("failed to marshal modalities for %q: %w", model.ID, err)
	}
	features, err := json.Marshal(model.Features)
	if err != nil {
		return fmt.Errorf("failed to marshal features for %q: %w", model.ID, err)
	}
	aliases, err := json.Marshal(model.Aliases)
	if err != nil {
		return fmt.Errorf("failed to marshal aliases for %q: %w", model.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO canonical_models (
			id, name, description, category, context_length,
			modalities, features, bindings, aliases, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		model.ID, model.Name, model.Description, model.Category, model.ContextLength,
		string(modalities), string(features), string(bindings), string(aliases), model.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert canonical model %q: %w", model.ID, err)
	}
	return nil
}

// ListCanonicalModels returns all persisted canonical models.
func (s *SQLiteStore) ListCanonicalModels(ctx context.Context) ([]registry.CanonicalModel, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, category, context_length,
		       modalities, features, bindings, aliases, updated_at
		FROM canonical_models
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query canonical models: %w", err)
	}
	defer rows.Close()

	var out []registry.CanonicalModel
	for rows.Next() {
		var model registry.CanonicalModel
		var modalities, features, bindings, aliases sql.NullString
		if err := rows.Scan(
			&model.ID, &model.Name, &model.Description, &model.Category, &model.ContextLength,
			&modalities, &features, &bindings, &aliases, &model.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan canonical model row: %w", err)
		}
		if bindings.Valid {
			if err := json.Unmarshal([]byte(bindings.String), &model.Bindings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal bindings for %q: %w", model.ID, err)
			}
		}
		if modalities.Valid {
			if err := json.Unmarshal([]byte(modalities.String), &model.Modalities); err != nil {
				return nil, fmt.Errorf("failed to unmarshal modalities for %q: %w", model.ID, err)
			}
		}
		if features.Valid {
			if err := json.Unmarshal([]byte(features.String), &model.Features); err != nil {
				return nil, fmt.Errorf("failed to unmarshal features for %q: %w", model.ID, err)
			}
		}
		if aliases.Valid {
			if err := json.Unmarshal([]byte(aliases.String), &model.Aliases); err != nil {
				return nil, fmt.Errorf("failed to unmarshal aliases for %q: %w", model.ID, err)
			}
		}
		out = append(out, model)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
