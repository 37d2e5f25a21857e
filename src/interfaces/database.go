package interfaces

import (
	"context"
	"time"

	"bubble-model/src/models"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// IDatabase defines the contract for run storage.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SaveRun stores a finished run with its trajectory in one transaction.
	SaveRun(ctx context.Context, result *models.MSimulationResult) error

	// -----------------------------------------------------------------------------

	// ListRuns returns run summaries, newest first. limit <= 0 means no limit.
	ListRuns(ctx context.Context, limit int) ([]models.MRunSummary, error)

	// -----------------------------------------------------------------------------

	// GetRun loads a run and its trajectory. Returns (nil, nil) if absent.
	GetRun(ctx context.Context, id uuid.UUID) (*models.MSimulationResult, error)

	// -----------------------------------------------------------------------------

	// CleanupOldRuns removes runs started before the cutoff and returns how many.
	CleanupOldRuns(ctx context.Context, before time.Time) (int64, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
