package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// ErrRunNotFound is returned when no run report exists for an ID.
var ErrRunNotFound = errors.New("run not found")

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun stores or replaces a run report.
func (s *RunStorage) SaveRun(ctx context.Context, report *models.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("run report is required")
	}
	if report.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}

	if err := s.db.Store().Upsert(report.ID, report); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run report by ID.
func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var report models.RunReport
	if err := s.db.Store().Get(id, &report); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &report, nil
}

// ListRuns returns stored runs newest first. A limit of 0 returns all.
func (s *RunStorage) ListRuns(ctx context.Context, limit int) ([]*models.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.RunReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.RunReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

// ListRunsBySuite returns runs for one suite, newest first.
func (s *RunStorage) ListRunsBySuite(ctx context.Context, suite string, limit int) ([]*models.RunReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query := badgerhold.Where("SuiteName").Eq(suite).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var reports []models.RunReport
	if err := s.db.Store().Find(&reports, query); err != nil {
		return nil, fmt.Errorf("failed to list runs for suite %s: %w", suite, err)
	}

	result := make([]*models.RunReport, len(reports))
	for i := range reports {
		result[i] = &reports[i]
	}
	return result, nil
}

// DeleteRun removes a run report. Deleting an unknown ID is not an error.
func (s *RunStorage) DeleteRun(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Store().Delete(id, &models.RunReport{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// CountRuns returns the number of stored run reports.
func (s *RunStorage) CountRuns(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := s.db.Store().Count(&models.RunReport{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return int(count), nil
}

// Prune removes the oldest runs beyond keep and returns the count removed.
// A keep of 0 or less disables pruning.
func (s *RunStorage) Prune(ctx context.Context, keep int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if keep <= 0 {
		return 0, nil
	}

	count, err := s.CountRuns(ctx)
	if err != nil {
		return 0, err
	}
	excess := count - keep
	if excess <= 0 {
		return 0, nil
	}

	var oldest []models.RunReport
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Limit(excess)
	if err := s.db.Store().Find(&oldest, query); err != nil {
		return 0, fmt.Errorf("failed to find prunable runs: %w", err)
	}

	removed := 0
	for i := range oldest {
		if err := s.db.Store().Delete(oldest[i].ID, &models.RunReport{}); err != nil && err != badgerhold.ErrNotFound {
			return removed, fmt.Errorf("failed to prune run %s: %w", oldest[i].ID, err)
		}
		removed++
	}

	s.logger.Debug().
		Int("removed", removed).
		Int("keep", keep).
		Msg("Pruned run history")

	return removed, nil
}

// Ensure RunStorage implements RunStorage interface
var _ interfaces.RunStorage = (*RunStorage)(nil)
