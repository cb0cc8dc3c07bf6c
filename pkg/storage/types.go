package storage

import (
	"context"
	"time"

	"mercator-hq/meridian/pkg/pricing"
	"mercator-hq/meridian/pkg/registry"
)

// RequestStatus is the terminal status of a persisted request.
type RequestStatus string

const (
	StatusCompleted RequestStatus = "completed"
	StatusFailed    RequestStatus = "failed"
	StatusCancelled RequestStatus = "cancelled"
)

// RequestRecord is one row of chat_completion_requests: the finalized
// outcome of a single Execute.
type RequestRecord struct {
	// ID is the gateway-assigned request id.
	ID string

	// CanonicalID is the canonical model id. Empty when the identifier
	// never resolved.
	CanonicalID string

	// Provider and NativeID identify the serving binding, when one was
	// chosen.
	Provider string
	NativeID string

	// InputTokens and OutputTokens are the accounted token counts.
	InputTokens  int
	OutputTokens int

	// InputCost, OutputCost, and TotalCost are USD at full precision.
	// Nil when pricing could not be resolved.
	InputCost  *float64
	OutputCost *float64
	TotalCost  *float64

	// PricingSource tags where the price came from.
	PricingSource pricing.Source

	// Status is the terminal request status.
	Status RequestStatus

	// Error is the surfaced error summary. Empty on success.
	Error string

	// Attempts is the serialized attempts list (JSON).
	Attempts string

	// ProcessingTimeMs is the end-to-end wall-clock duration.
	ProcessingTimeMs int64

	// CreatedAt is when the request entered the gateway.
	CreatedAt time.Time
}

// Store is the persistence contract the gateway core writes through.
type Store interface {
	// SaveRequest persists one finalized request outcome.
	SaveRequest(ctx context.Context, rec *RequestRecord) error

	// ListRequests returns the most recent request records, newest first.
	ListRequests(ctx context.Context, limit int) ([]RequestRecord, error)

	// UpsertModelPricing inserts or replaces one pricing record.
	UpsertModelPricing(ctx context.Context, rec pricing.Record) error

	// ListModelPricing returns all pricing records.
	ListModelPricing(ctx context.Context) ([]pricing.Record, error)

	// UpsertCanonicalModel persists the durable form of a canonical model.
	UpsertCanonicalModel(ctx context.Context, model registry.CanonicalModel) error

	// ListCanonicalModels returns all persisted canonical models.
	ListCanonicalModels(ctx context.Context) ([]registry.CanonicalModel, error)

	// Close releases the backend.
	Close() error
}
