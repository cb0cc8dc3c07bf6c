// Package registry maintains the canonical multi-provider model catalog.
//
// A canonical model is the provider-agnostic identity of a model (e.g.
// "llama-3.3-70b"). Each canonical model owns an ordered list of provider
// bindings: one provider's implementation of that model, with its native id,
// priority, pricing, and feature set. The registry aggregates bindings into
// the canonical view (context length, modalities, pricing range), resolves
// any identifier a caller might send (canonical id, alias, case variant,
// "provider/native-id" composite, bare native id) to the canonical id, and
// produces ordered provider plans for the failover executor.
//
// Canonical models are created by catalog ingest or curated configuration,
// mutated by re-ingest, and never deleted at runtime; a provider that drops
// a model gets its binding disabled instead.
//
// The registry is a process-wide shared structure guarded by a
// reader/writer lock. Lookups and provider selection are read operations;
// registration and alias writes are write operations.
package registry
