package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// RunStorage - interface for run report persistence
type RunStorage interface {
	// SaveRun stores or replaces a run report.
	SaveRun(ctx context.Context, report *models.RunReport) error

	// GetRun retrieves a run report by ID.
	GetRun(ctx context.Context, id string) (*models.RunReport, error)

	// ListRuns returns the most recent runs, newest first. A limit of 0
	// returns all.
	ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error)

	// ListRunsBySuite returns the most recent runs for one suite, newest first.
	ListRunsBySuite(ctx context.Context, suite string, limit int) ([]*models.RunReport, error)

	// DeleteRun removes a run report by ID.
	DeleteRun(ctx context.Context, id string) error

	// CountRuns returns the number of stored run reports.
	CountRuns(ctx context.Context) (int, error)

	// Prune removes the oldest runs beyond keep, returning the count removed.
	Prune(ctx context.Context, keep int) (int, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	RunStorage() RunStorage
	DB() interface{}
	Close() error
}
