package failover

import (
	"context"
	"errors"
	"net/http"

	"mercator-hq/meridian/pkg/providers"
)

// ErrorKind is the closed classification of Execute failures. Boundary
// adapters translate kinds to HTTP status classes; the core never raises
// HTTP errors directly.
type ErrorKind string

const (
	// KindNone means no failure.
	KindNone ErrorKind = ""

	// KindUnknownModel means the user-supplied identifier did not resolve.
	KindUnknownModel ErrorKind = "unknown_model"

	// KindNoProvider means the provider plan was empty after filtering.
	KindNoProvider ErrorKind = "no_available_provider"

	// KindTransient covers network failures, 5xx, 408, 425, and 429:
	// the provider may recover, and another provider may serve the
	// request right now.
	KindTransient ErrorKind = "provider_transient"

	// KindCredential covers 401, 403, and 404 against a specific
	// provider: the failure is scoped to that provider's credentials or
	// availability, so another binding is worth trying.
	KindCredential ErrorKind = "provider_credential_or_availability"

	// KindClient covers 400 and 422: the request itself is invalid and
	// no provider will accept it.
	KindClient ErrorKind = "provider_client"

	// KindDeadline means the caller-supplied deadline expired.
	KindDeadline ErrorKind = "deadline_exceeded"

	// KindCancelled means the caller cancelled the request.
	KindCancelled ErrorKind = "cancelled"
)

// Classify maps a provider-call error to its kind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindDeadline
	}

	status := providers.StatusCode(err)
	switch {
	case status == 0:
		// Transport failure, parse failure, or stream setup failure
		// without an upstream status.
		return KindTransient
	case status >= 500:
		return KindTransient
	case status == http.StatusRequestTimeout, status == http.StatusTooEarly, status == http.StatusTooManyRequests:
		return KindTransient
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusNotFound:
		return KindCredential
	default:
		// 400, 422, and any other 4xx attributable to the request.
		return KindClient
	}
}

// retryable reports whether a failure of this kind should move on to the
// next binding in the plan.
func retryable(kind ErrorKind) bool {
	switch kind {
	case KindTransient, KindCredential:
		return true
	default:
		return false
	}
}

// recordsFailure reports whether a failure of this kind counts against the
// provider's health. Caller cancellation is not the provider's fault, and
// neither is a deadline the caller set tighter than the adapter's own
// timeout: when the caller's context has expired the deadline was theirs,
// when it is still live the expiry came from the adapter's per-call
// timeout and the provider really was too slow.
func recordsFailure(ctx context.Context, kind ErrorKind) bool {
	switch kind {
	case KindCancelled:
		return false
	case KindDeadline:
		return ctx.Err() == nil
	default:
		return true
	}
}
