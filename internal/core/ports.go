package core

import (
	"context"
	"maps"
)

// =============================================================================
// Oracle Port
// =============================================================================

// Oracle is the external LLM completion service used by every stage.
//
// Complete returns the raw completion text. Every failure is reported as a
// *DomainError in the provider category; implementations never panic and
// never cache responses.
type Oracle interface {
	// Name returns the provider identifier (e.g., "openai", "gemini").
	Name() string

	// Complete sends one system/user prompt pair and returns the answer text.
	Complete(ctx context.Context, req OracleRequest) (string, error)
}

// OracleRequest configures a single completion.
type OracleRequest struct {
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
	MaxTokens    int
	// JSON asks the provider for a JSON-only answer when it supports it.
	JSON bool
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req OracleRequest) (string, error)

// Name implements Oracle.
func (f OracleFunc) Name() string { return "func" }

// Complete implements Oracle.
func (f OracleFunc) Complete(ctx context.Context, req OracleRequest) (string, error) {
	return f(ctx, req)
}

// =============================================================================
// Advertiser Lookup Port
// =============================================================================

// AdvertiserRecord is one entry of the historical advertiser vector database.
// Vector keys are prefixed by feature kind: "genre:", "channel:", "network:",
// "zip:".
type AdvertiserRecord struct {
	Advertiser string             `json:"advertiser"`
	Vector     map[string]float64 `json:"vector"`
	TotalCount int64              `json:"total_count"`
}

// Clone returns a deep copy.
func (r *AdvertiserRecord) Clone() *AdvertiserRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Vector = maps.Clone(r.Vector)
	return &c
}

// AdvertiserLookup resolves advertiser names to historical records.
// A missing record is a normal condition, reported with ok == false.
type AdvertiserLookup interface {
	Lookup(name string) (*AdvertiserRecord, bool)
}

// =============================================================================
// Plan Store Port
// =============================================================================

// PlanStore persists finished campaign plans.
type PlanStore interface {
	// SavePlan stores a plan. The record ID must be set by the caller.
	SavePlan(ctx context.Context, plan *PlanRecord) error

	// GetPlan retrieves a plan by ID. Returns a not_found DomainError if absent.
	GetPlan(ctx context.Context, id PlanID) (*PlanRecord, error)

	// ListPlans returns summaries, newest first.
	ListPlans(ctx context.Context, limit int) ([]PlanSummary, error)

	// Close releases resources.
	Close() error
}
