// Package tokens estimates token counts for requests and responses when an
// upstream provider omits usage accounting.
//
// Two estimators are provided: SimpleEstimator uses model-specific
// characters-per-token ratios and is fast enough for the hot path;
// TiktokenEstimator runs a real BPE tokenizer for tighter accounting on
// OpenAI-family vocabularies. Both are approximations of provider-side
// tokenization; cost computed from estimated counts is tagged as such by
// the caller.
package tokens
