package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/meridian/pkg/failover"
	"mercator-hq/meridian/pkg/gateway"
	"mercator-hq/meridian/pkg/providers"
	"mercator-hq/meridian/pkg/registry"
)

// completionRequest is the HTTP request body for chat completions.
type completionRequest struct {
	Model    string              `json:"model"`
	Messages []providers.Message `json:"messages"`
	Stream   bool                `json:"stream,omitempty"`

	Temperature      float64       `json:"temperature,omitempty"`
	MaxTokens        int           `json:"max_tokens,omitempty"`
	TopP             float64       `json:"top_p,omitempty"`
	Tools            []providers.Tool `json:"tools,omitempty"`
	ToolChoice       interface{}   `json:"tool_choice,omitempty"`
	Stop             []string      `json:"stop,omitempty"`
	PresencePenalty  float64       `json:"presence_penalty,omitempty"`
	FrequencyPenalty float64       `json:"frequency_penalty,omitempty"`
	User             string        `json:"user,omitempty"`

	// Routing extensions
	Strategy  string   `json:"strategy,omitempty"`
	Preferred string   `json:"preferred_provider,omitempty"`
	Excluded  []string `json:"excluded_providers,omitempty"`
}

// newRouter builds the gateway HTTP surface.
func newRouter(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/chat/completions", a.handleCompletion)
	mux.HandleFunc("GET /v1/models", a.handleModels)
	mux.HandleFunc("GET /v1/models/{id}", a.handleModel)
	mux.HandleFunc("GET /health", a.handleHealth)
	if a.collector != nil {
		mux.Handle("GET "+a.cfg.Telemetry.Metrics.Path, a.collector.Handler())
	}
	return mux
}

func (a *app) handleCompletion(w http.ResponseWriter, r *http.Request) {
	var body completionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if body.Model == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "model is required")
		return
	}
	if len(body.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "messages must not be empty")
		return
	}

	req := &providers.CompletionRequest{
		Messages:         body.Messages,
		Temperature:      body.Temperature,
		MaxTokens:        body.MaxTokens,
		TopP:             body.TopP,
		Tools:            body.Tools,
		ToolChoice:       body.ToolChoice,
		Stop:             body.Stop,
		PresencePenalty:  body.PresencePenalty,
		FrequencyPenalty: body.FrequencyPenalty,
		User:             body.User,
	}
	opts := gateway.Options{
		Strategy:  registry.Strategy(body.Strategy),
		Preferred: body.Preferred,
		Excluded:  body.Excluded,
	}

	if body.Stream {
		a.streamCompletion(w, r, body.Model, req, opts)
		return
	}

	result, err := a.gateway.Execute(r.Context(), body.Model, req, opts)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// streamCompletion proxies gateway stream chunks as Server-Sent Events.
func (a *app) streamCompletion(w http.ResponseWriter, r *http.Request, model string, req *providers.CompletionRequest, opts gateway.Options) {
	stream, err := a.gateway.ExecuteStream(r.Context(), model, req, opts)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	for chunk := range stream.Chunks {
		if chunk.Err != nil {
			payload, _ := json.Marshal(map[string]string{"error": chunk.Err.Error()})
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			break
		}
		payload, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
	stream.Wait()
}

func (a *app) handleModels(w http.ResponseWriter, r *http.Request) {
	filter := registry.SearchFilter{
		Query:    r.URL.Query().Get("q"),
		Category: r.URL.Query().Get("category"),
		Provider: r.URL.Query().Get("provider"),
	}
	models := a.registry.Search(filter)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": models,
	})
}

func (a *app) handleModel(w http.ResponseWriter, r *http.Request) {
	identifier := r.PathValue("id")
	canonicalID, ok := a.registry.Resolve(identifier)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_model", fmt.Sprintf("model %q is not registered", identifier))
		return
	}
	model, _ := a.registry.Get(canonicalID)
	writeJSON(w, http.StatusOK, model)
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"models":   a.registry.Stats().Models,
		"circuits": a.tracker.SnapshotAll(),
	})
}

// writeRequestError maps gateway failures onto HTTP statuses.
func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *gateway.RequestError
	if !errors.As(err, &reqErr) {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	status := http.StatusBadGateway
	switch reqErr.Kind {
	case failover.KindUnknownModel:
		status = http.StatusNotFound
	case failover.KindNoProvider:
		status = http.StatusServiceUnavailable
	case failover.KindCancelled:
		// Client went away; 499 is the de-facto convention.
		status = 499
	case failover.KindDeadline:
		status = http.StatusGatewayTimeout
	case failover.KindClient:
		// The request itself was rejected upstream; relay the upstream
		// status rather than reporting a gateway fault.
		status = http.StatusBadRequest
		if n := len(reqErr.Attempts); n > 0 {
			if code := reqErr.Attempts[n-1].StatusCode; code >= 400 && code < 500 {
				status = code
			}
		}
	case failover.KindCredential:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"request_id": reqErr.RequestID,
			"reason":     reqErr.Reason,
			"message":    reqErr.Error(),
			"attempts":   reqErr.Attempts,
		},
	})
}

func writeError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"reason":  reason,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
