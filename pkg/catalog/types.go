package catalog

import (
	"context"
	"time"
)

// Entry is one model as listed by a provider catalog. Prices, when
// present, are already normalized to USD per token.
type Entry struct {
	// NativeID is the provider's identifier for the model.
	NativeID string

	// Name is the display name, when the catalog carries one.
	Name string

	// ContextLength is the context window in tokens; 0 when unknown.
	ContextLength int

	// InputPrice and OutputPrice are per-token USD prices; nil when the
	// catalog does not publish pricing.
	InputPrice  *float64
	OutputPrice *float64

	// MaxOutputTokens caps completion length; nil when unknown.
	MaxOutputTokens *int

	// Features lists capabilities the catalog advertises, e.g.
	// "streaming", "tools".
	Features []string

	// Extra carries provider-specific fields that have no structured
	// home, keyed by field name.
	Extra map[string]string
}

// Fetcher lists the models one provider currently serves.
type Fetcher interface {
	// Provider returns the provider slug the fetcher serves.
	Provider() string

	// Fetch lists the provider's current catalog.
	Fetch(ctx context.Context) ([]Entry, error)
}

// SyncReport summarizes one provider sync pass.
type SyncReport struct {
	Provider string        `json:"provider"`
	Fetched  int           `json:"fetched"`
	Added    int           `json:"added"`
	Updated  int           `json:"updated"`
	Disabled int           `json:"disabled"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// CombinedReport aggregates sync reports across providers.
type CombinedReport struct {
	Started  time.Time    `json:"started"`
	Finished time.Time    `json:"finished"`
	Reports  []SyncReport `json:"reports"`
}

// Failed reports whether any provider sync returned an error.
func (r CombinedReport) Failed() bool {
	for _, report := range r.Reports {
		if report.Err != nil {
			return true
		}
	}
	return false
}
