package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// TestFunc is the per-record test callback. A nil return marks the record
// passed; runner.Skip errors mark it skipped; any other error marks it
// failed. Panics are recovered and mark the record errored.
type TestFunc func(ctx context.Context, index int, record models.Record) error

// RunnerService executes a test function against loaded records.
type RunnerService interface {
	// Run executes fn once per record, sequentially or in parallel per the
	// options. The returned summary is always non-nil, even when the run
	// stopped early; the error reports cancellation or invalid options.
	Run(ctx context.Context, records []models.Record, fn TestFunc, opts models.ExecutionOptions) (*models.ExecutionSummary, error)
}
