// Package providers defines the adapter contract between the gateway core
// and upstream LLM APIs, together with the provider-agnostic request and
// response types shared across the codebase.
//
// An Adapter wraps one upstream provider (OpenRouter, Fireworks, Together,
// DeepInfra, ...). Most providers expose an OpenAI-compatible chat-completion
// API, so a single configurable HTTP adapter (OpenAIAdapter) covers the bulk
// of the fleet; providers with bespoke wire formats implement the Adapter
// interface directly.
//
// Adapters are transport only: they accept a provider-native model id and an
// OpenAI-shaped request, and return either a normalized response or a typed
// error carrying the upstream HTTP status. Failover, health tracking, and
// retry decisions live above this package.
package providers
