// Package gateway orchestrates request execution end to end.
//
// The Gateway resolves the requested model, runs the failover executor
// over provider adapters, accounts tokens and cost for the winning
// attempt, records metrics, and persists the finalized outcome. Streaming
// requests proxy chunks to the caller while accounting is finalized from
// the trailing usage chunk (or a local estimate) after the stream ends.
package gateway
