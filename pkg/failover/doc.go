// Package failover executes a request across an ordered chain of provider
// bindings with health-aware routing.
//
// The executor owns the failover loop only: the caller supplies a run
// function that performs the actual provider call, and the executor decides
// which bindings to try, in what order, whether a failure is worth retrying
// on the next provider, and what the health tracker should learn from each
// attempt. Attempts within one Execute are strictly sequential; a failover
// starts only after the previous attempt has terminated.
//
// Errors are classified into a closed kind enum (see ErrorKind); retry
// eligibility is decided per kind, not per provider. Transient upstream
// failures and provider-scoped credential/availability failures move on to
// the next binding; request-attributable client errors, deadline expiry,
// and caller cancellation stop the chain.
package failover
