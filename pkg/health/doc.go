// Package health tracks the real-time health of every (canonical model,
// provider) pair and gates routing decisions through a circuit breaker.
//
// Each pair carries success/failure counters, a bounded ring of recent
// latency samples, and a three-state circuit (CLOSED, OPEN, HALF_OPEN).
// Consecutive failures open the circuit; after a recovery timeout the
// circuit admits probe traffic (HALF_OPEN) and closes again once enough
// probes succeed. Persistently slow responses open the circuit too, even
// when every request technically succeeds.
//
// The tracker is optimistic about pairs it has never seen: availability
// checks on unknown pairs return true so freshly registered providers are
// not pre-blocked.
//
// Entries are created lazily on the first recorded success or failure and
// retained for the process lifetime (or until Reset).
package health
