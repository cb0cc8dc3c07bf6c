// Package storage persists gateway state: finalized request outcomes,
// per-token model pricing, and an optional durable copy of the canonical
// model registry.
//
// Two backends are provided. SQLiteStore runs over database/sql with a
// selectable driver (mattn/go-sqlite3 by default, modernc.org/sqlite for
// cgo-free builds). MemoryStore keeps everything in process memory and
// backs tests.
//
// Costs are stored as NUMERIC at full precision; token counts as integers.
package storage
