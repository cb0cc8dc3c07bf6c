// Package metrics provides Prometheus instrumentation for the gateway.
//
// The Collector owns a private registry and pre-registered metric families
// for requests, provider attempts, circuit breaker state, and cost
// accounting. Components record through the Collector; the exposition
// endpoint is served from Handler().
package metrics
