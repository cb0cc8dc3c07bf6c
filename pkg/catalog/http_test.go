package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcherParsesListing(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{
					"id": "meta-llama/llama-3.3-70b-instruct",
					"name": "Llama 3.3 70B Instruct",
					"context_length": 131072,
					"pricing": {"prompt": "0.0000009", "completion": "0.0000009"},
					"top_provider": {"max_completion_tokens": 4096},
					"owned_by": "meta"
				},
				{
					"id": "free-model",
					"pricing": {"prompt": "0", "completion": "0"}
				},
				{
					"id": "bad-pricing",
					"pricing": {"prompt": "not-a-number", "completion": "-1"}
				},
				{
					"id": ""
				}
			]
		}`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{
		Provider: "openrouter",
		BaseURL:  server.URL,
		APIKey:   "sk-test",
	})

	entries, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotPath != "/v1/models" {
		t.Errorf("path = %s, want /v1/models", gotPath)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}

	// Entries without an id are dropped.
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}

	first := entries[0]
	if first.NativeID != "meta-llama/llama-3.3-70b-instruct" {
		t.Errorf("NativeID = %s", first.NativeID)
	}
	if first.ContextLength != 131072 {
		t.Errorf("ContextLength = %d", first.ContextLength)
	}
	if first.InputPrice == nil || *first.InputPrice != 9e-7 {
		t.Errorf("InputPrice = %v, want 9e-07", first.InputPrice)
	}
	if first.MaxOutputTokens == nil || *first.MaxOutputTokens != 4096 {
		t.Errorf("MaxOutputTokens = %v, want 4096", first.MaxOutputTokens)
	}
	if first.Extra["owned_by"] != "meta" {
		t.Errorf("Extra = %v", first.Extra)
	}

	// Explicit zero prices survive; a free model is not an unpriced model.
	free := entries[1]
	if free.InputPrice == nil || *free.InputPrice != 0 {
		t.Errorf("free model InputPrice = %v, want 0", free.InputPrice)
	}

	// Garbage and negative prices are dropped, not zeroed.
	bad := entries[2]
	if bad.InputPrice != nil || bad.OutputPrice != nil {
		t.Errorf("invalid prices should be nil, got %v/%v", bad.InputPrice, bad.OutputPrice)
	}
}

func TestHTTPFetcherNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{Provider: "openrouter", BaseURL: server.URL})

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Fetch should fail on a non-200 response")
	}
}

func TestHTTPFetcherMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{Provider: "openrouter", BaseURL: server.URL})

	if _, err := f.Fetch(context.Background()); err == nil {
		t.Error("Fetch should fail on malformed JSON")
	}
}

func TestHTTPFetcherCustomPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{
		Provider: "custom",
		BaseURL:  server.URL + "/",
		Path:     "/api/v2/models",
	})
	if _, err := f.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotPath != "/api/v2/models" {
		t.Errorf("path = %s, want /api/v2/models", gotPath)
	}
}
