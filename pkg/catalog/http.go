package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPFetcher lists models from an OpenAI-compatible model listing
// endpoint (GET {base_url}{catalog_path}). OpenRouter-style extensions
// (context_length, per-token pricing) are picked up when present.
type HTTPFetcher struct {
	provider string
	baseURL  string
	path     string
	apiKey   string
	client   *http.Client
}

// HTTPFetcherConfig configures an HTTPFetcher.
type HTTPFetcherConfig struct {
	// Provider is the provider slug.
	Provider string

	// BaseURL is the upstream API base URL.
	BaseURL string

	// Path is the model listing path.
	// Default: "/v1/models"
	Path string

	// APIKey authenticates the listing request, when required.
	APIKey string

	// Timeout bounds the listing request.
	// Default: 30s
	Timeout time.Duration
}

// NewHTTPFetcher creates a fetcher for an OpenAI-compatible catalog.
func NewHTTPFetcher(cfg HTTPFetcherConfig) *HTTPFetcher {
	path := cfg.Path
	if path == "" {
		path = "/v1/models"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		provider: cfg.Provider,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		path:     path,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
	}
}

// Provider returns the provider slug the fetcher serves.
func (f *HTTPFetcher) Provider() string {
	return f.provider
}

// wireModelList is the OpenAI-compatible listing envelope.
type wireModelList struct {
	Data []wireModel `json:"data"`
}

// wireModel is one listed model. Pricing fields follow the OpenRouter
// convention of per-token USD prices encoded as strings.
type wireModel struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length"`
	Pricing       *struct {
		Prompt     string `json:"prompt"`
		Completion string `json:"completion"`
	} `json:"pricing"`
	TopProvider *struct {
		MaxCompletionTokens *int `json:"max_completion_tokens"`
	} `json:"top_provider"`
	OwnedBy string `json:"owned_by"`
}

// Fetch lists the provider's current catalog.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+f.path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request for %q: %w", f.provider, err)
	}
	if f.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request to %q failed: %w", f.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("catalog request to %q returned %d: %s",
			f.provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list wireModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode catalog from %q: %w", f.provider, err)
	}

	entries := make([]Entry, 0, len(list.Data))
	for _, model := range list.Data {
		if model.ID == "" {
			continue
		}
		entry := Entry{
			NativeID:      model.ID,
			Name:          model.Name,
			ContextLength: model.ContextLength,
		}
		if model.Pricing != nil {
			entry.InputPrice = parsePrice(model.Pricing.Prompt)
			entry.OutputPrice = parsePrice(model.Pricing.Completion)
		}
		if model.TopProvider != nil && model.TopProvider.MaxCompletionTokens != nil {
			entry.MaxOutputTokens = model.TopProvider.MaxCompletionTokens
		}
		if model.OwnedBy != "" {
			entry.Extra = map[string]string{"owned_by": model.OwnedBy}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// parsePrice parses a per-token price string; nil for absent or invalid
// values, so negative and garbage prices never enter the registry.
func parsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}
