package catalog

import "context"

// StaticFetcher serves a fixed entry list. It backs tests and providers
// whose catalog is declared in configuration rather than fetched.
type StaticFetcher struct {
	provider string
	entries  []Entry
	err      error
}

// NewStaticFetcher creates a fetcher returning the given entries.
func NewStaticFetcher(provider string, entries []Entry) *StaticFetcher {
	return &StaticFetcher{provider: provider, entries: entries}
}

// NewFailingFetcher creates a fetcher that always fails. Tests use it to
// exercise sync error paths.
func NewFailingFetcher(provider string, err error) *StaticFetcher {
	return &StaticFetcher{provider: provider, err: err}
}

// Provider returns the provider slug the fetcher serves.
func (f *StaticFetcher) Provider() string {
	return f.provider
}

// Fetch returns the fixed entry list.
func (f *StaticFetcher) Fetch(_ context.Context) ([]Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}
