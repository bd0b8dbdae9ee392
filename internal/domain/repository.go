package domain

import (
	"context"
	"errors"
	"time"
)

// Trigger names the widget action that issued a lookup
type Trigger string

const (
	TriggerSearch Trigger = "search"
	TriggerLoad   Trigger = "load"
	TriggerDirect Trigger = "direct"
)

// Outcome classifies how a lookup ended
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeNotFound Outcome = "not_found"
	OutcomeError    Outcome = "error"
)

// OutcomeOf maps a fetch error onto its outcome class
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrLocationNotFound):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}

// Lookup is one fetch recorded in the server-side lookup log
type Lookup struct {
	ID        string         `json:"id"`
	SessionID string         `json:"session_id,omitempty"`
	Query     string         `json:"query"`
	Trigger   Trigger        `json:"trigger"`
	Outcome   Outcome        `json:"outcome"`
	Record    *WeatherRecord `json:"record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// LookupRepository defines the interface for lookup log persistence
// The widget only writes to it; nothing it renders is read back.
type LookupRepository interface {
	// SaveLookup persists one lookup
	SaveLookup(ctx context.Context, l Lookup) error

	// GetLookups retrieves lookups inside a time range, newest first
	GetLookups(ctx context.Context, from, to time.Time) ([]Lookup, error)

	// Health checks storage connectivity
	Health(ctx context.Context) error
}
