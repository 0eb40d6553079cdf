// Package store persists generated risk reports for later review.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one archived risk report. Payload holds the full report
// document as served to the caller.
type Record struct {
	ID             uuid.UUID       `json:"id"`
	EntityName     string          `json:"entity_name"`
	ReportType     string          `json:"report_type"`
	RiskScore      float64         `json:"risk_score"`
	RiskAssessment string          `json:"risk_assessment"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Report types recorded in the archive.
const (
	TypeEntityAnalysis = "entity_analysis"
	TypeShellCompany   = "shell_company"
)

// Store archives risk reports. Implementations must be safe for concurrent
// use.
type Store interface {
	// Save archives a report. A zero ID or CreatedAt is filled in.
	Save(ctx context.Context, record *Record) error

	// FindByID returns one archived report or sentinel.ErrNotFound.
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// List returns archived reports, newest first.
	List(ctx context.Context, limit, offset int) ([]Record, error)

	// ListByEntity returns an entity's archived reports, newest first.
	ListByEntity(ctx context.Context, entityName string) ([]Record, error)

	// Count returns the number of archived reports.
	Count(ctx context.Context) (int, error)

	// Delete removes one archived report or returns sentinel.ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}
