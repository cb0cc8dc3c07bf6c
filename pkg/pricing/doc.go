// Package pricing resolves per-token prices for (canonical model, provider,
// native id) tuples and computes the monetary cost of completed requests.
//
// Prices arrive from three places with a fixed precedence: the persistent
// model_pricing table, catalog-derived pricing stored on registry bindings,
// and manual overrides loaded from configuration. All prices are normalized
// to USD per token on ingest; per-1K and per-1M inputs are scaled before
// storage so comparisons never mix units.
//
// The resolver is read-mostly: lookups read an immutable snapshot through
// an atomic pointer, and refreshes build a new snapshot off the hot path
// and swap it in.
package pricing
