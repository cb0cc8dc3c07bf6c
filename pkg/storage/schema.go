package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the gateway database schema.
const Schema = `
-- Durable canonical model registry (optional mirror of in-memory state)
CREATE TABLE IF NOT EXISTS canonical_models (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    category TEXT,
    context_length INTEGER,
    modalities TEXT,
    features TEXT,
    bindings TEXT NOT NULL,
    aliases TEXT,
    updated_at TIMESTAMP NOT NULL
);

-- Per-token pricing, keyed by canonical id or (provider, native id)
CREATE TABLE IF NOT EXISTS model_pricing (
    canonical_id TEXT NOT NULL DEFAULT '',
    provider TEXT NOT NULL DEFAULT '',
    native_id TEXT NOT NULL DEFAULT '',
    input_price NUMERIC NOT NULL,
    output_price NUMERIC NOT NULL,
    source TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    PRIMARY KEY (canonical_id, provider, native_id)
);

-- One row per executed chat-completion request
CREATE TABLE IF NOT EXISTS chat_completion_requests (
    id TEXT PRIMARY KEY,
    canonical_id TEXT,
    provider TEXT,
    native_id TEXT,
    input_tokens INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    input_cost NUMERIC,
    output_cost NUMERIC,
    total_cost NUMERIC,
    pricing_source TEXT,
    status TEXT NOT NULL,
    error TEXT,
    attempts TEXT,
    processing_time_ms INTEGER,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_requests_created_at
    ON chat_completion_requests(created_at);
CREATE INDEX IF NOT EXISTS idx_requests_canonical
    ON chat_completion_requests(canonical_id);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);
`
