package pricing

import "fmt"

// Unit names the denomination a price was expressed in at its source.
// Internal storage is always per token.
type Unit string

const (
	// UnitPerToken is the internal denomination.
	UnitPerToken Unit = "per_token"

	// UnitPer1K is USD per 1000 tokens (common in provider pricing pages).
	UnitPer1K Unit = "per_1k"

	// UnitPer1M is USD per 1,000,000 tokens (common in catalog APIs).
	UnitPer1M Unit = "per_1m"
)

// ParseUnit maps a source unit string to a Unit. Empty input defaults to
// per-token.
func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", string(UnitPerToken), "token":
		return UnitPerToken, nil
	case string(UnitPer1K), "1k", "thousand":
		return UnitPer1K, nil
	case string(UnitPer1M), "1m", "million":
		return UnitPer1M, nil
	}
	return "", fmt.Errorf("unknown pricing unit %q", s)
}

// Normalize converts a rate in the given unit to USD per token.
func Normalize(rate float64, unit Unit) float64 {
	switch unit {
	case UnitPer1K:
		return rate / 1_000
	case UnitPer1M:
		return rate / 1_000_000
	default:
		return rate
	}
}
