// Meridian is a multi-provider LLM gateway.
//
// It resolves canonical model identifiers across providers, selects an
// upstream by priority, cost, latency, or a balanced score, fails over on
// transient errors with circuit-breaker health tracking, and accounts
// token usage and cost for every request.
//
// Usage:
//
//	# Start the gateway with default configuration
//	meridian run
//
//	# Start with a custom configuration file
//	meridian run --config /etc/meridian/config.yaml
//
//	# Run one catalog sync pass and exit
//	meridian sync
//
//	# List registered canonical models
//	meridian models
//
//	# Resolve a model identifier to its canonical id and provider plan
//	meridian resolve gpt-4o
package main

func main() {
	Execute()
}
