package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerationRequest describes one batch of codes: Length symbols in total, the
// first of which are the literal Initials.
type GenerationRequest struct {
	Length   int    `json:"length"`
	Count    int    `json:"count"`
	Initials string `json:"initials,omitempty"`
}

// ExportRequest asks for a batch to be written to a storage key.
type ExportRequest struct {
	GenerationRequest
	Key string `json:"key"`
}

// GenerationRun is the persisted summary of a completed batch.
type GenerationRun struct {
	ID            uuid.UUID `json:"id" db:"id"`
	TotalLength   int       `json:"length" db:"total_length"`
	Initials      string    `json:"initials" db:"prefix"`
	RequiredCount int       `json:"count" db:"required_count"`
	Workers       int       `json:"workers" db:"workers"`
	Attempts      int64     `json:"attempts" db:"attempts"`
	Collisions    int64     `json:"collisions" db:"collisions"`
	DurationMs    int64     `json:"durationMs" db:"duration_ms"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
}

// GenerationResponse represents the response payload for a generated batch.
type GenerationResponse struct {
	Run   GenerationRun `json:"run"`
	Codes []string      `json:"codes"`
}

// ExportResponse represents the response payload for a stored export.
type ExportResponse struct {
	RunID uuid.UUID `json:"runId"`
	Key   string    `json:"key"`
	Count int       `json:"count"`
}
