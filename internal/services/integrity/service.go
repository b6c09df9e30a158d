// Package integrity validates data sources before runs: existence,
// parseability, emptiness, duplicate records, and ragged field sets.
package integrity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/readers"
)

// Service checks data sources for structural problems.
type Service struct {
	datasets interfaces.DatasetService
	logger   arbor.ILogger
}

// NewService creates a new integrity service.
func NewService(datasets interfaces.DatasetService, logger arbor.ILogger) *Service {
	return &Service{
		datasets: datasets,
		logger:   logger,
	}
}

// Check inspects every source and aggregates findings. A problem in one
// source never aborts the remaining sources; the only error return is
// context cancellation.
func (s *Service) Check(ctx context.Context, sources []models.DataSource) (*models.IntegrityReport, error) {
	report := models.NewIntegrityReport()
	report.Sources = len(sources)

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		s.checkSource(ctx, source, report)
	}

	s.logger.Info().
		Int("sources", report.Sources).
		Int("records", report.Records).
		Int("errors", report.ErrorCount()).
		Int("warnings", report.WarningCount()).
		Bool("valid", report.Valid).
		Msg("Integrity check completed")

	return report, nil
}

// checkSource runs all checks for one source and appends findings.
func (s *Service) checkSource(ctx context.Context, source models.DataSource, report *models.IntegrityReport) {
	label := source.Path

	if err := source.Validate(); err != nil {
		report.Add(models.IntegrityIssue{
			Source:   label,
			Severity: models.SeverityError,
			Code:     models.IssueLoadFailed,
			Message:  err.Error(),
		})
		return
	}

	if info, err := os.Stat(source.Path); err != nil {
		report.Add(models.IntegrityIssue{
			Source:   label,
			Severity: models.SeverityError,
			Code:     models.IssueSourceMissing,
			Message:  fmt.Sprintf("source not readable: %v", err),
		})
		return
	} else if info.IsDir() {
		report.Add(models.IntegrityIssue{
			Source:   label,
			Severity: models.SeverityError,
			Code:     models.IssueSourceMissing,
			Message:  "source is a directory",
		})
		return
	}

	// Integrity inspects the file as it is on disk: cache bypassed and
	// filter/sample reductions stripped. Sheet and delimiter stay, they are
	// needed to parse at all.
	fresh := source
	fresh.Options.NoCache = true
	fresh.Options.Filter = nil
	fresh.Options.SampleSize = 0
	fresh.Options.SampleSeed = 0

	records, err := s.datasets.Load(ctx, fresh)
	if err != nil {
		if errors.Is(err, readers.ErrNoRecords) || errors.Is(err, readers.ErrNoHeader) {
			report.Add(models.IntegrityIssue{
				Source:   label,
				Severity: models.SeverityError,
				Code:     models.IssueEmptySource,
				Message:  "source contains no records",
			})
			return
		}
		report.Add(models.IntegrityIssue{
			Source:   label,
			Severity: models.SeverityError,
			Code:     models.IssueLoadFailed,
			Message:  err.Error(),
		})
		return
	}

	if len(records) == 0 {
		report.Add(models.IntegrityIssue{
			Source:   label,
			Severity: models.SeverityError,
			Code:     models.IssueEmptySource,
			Message:  "source contains no records",
		})
		return
	}

	report.Records += len(records)

	s.checkDuplicates(label, records, report)
	s.checkRaggedFields(label, records, report)
}

// checkDuplicates flags records that are field-for-field identical to an
// earlier record.
func (s *Service) checkDuplicates(label string, records []models.Record, report *models.IntegrityReport) {
	seen := make(map[string]int, len(records))
	for i := range records {
		fingerprint := records[i].Fingerprint()
		if first, dup := seen[fingerprint]; dup {
			report.Add(models.IntegrityIssue{
				Source:   label,
				Severity: models.SeverityWarning,
				Code:     models.IssueDuplicateRecord,
				Message:  fmt.Sprintf("record %d duplicates record %d", i, first),
				Index:    i,
			})
			continue
		}
		seen[fingerprint] = i
	}
}

// checkRaggedFields flags records whose field set differs from the first
// record's.
func (s *Service) checkRaggedFields(label string, records []models.Record, report *models.IntegrityReport) {
	reference := fieldSet(records[0])
	for i := 1; i < len(records); i++ {
		if current := fieldSet(records[i]); current != reference {
			report.Add(models.IntegrityIssue{
				Source:   label,
				Severity: models.SeverityWarning,
				Code:     models.IssueRaggedFields,
				Message:  fmt.Sprintf("record %d fields [%s] differ from first record [%s]", i, current, reference),
				Index:    i,
			})
		}
	}
}

// fieldSet renders a record's field names sorted, for order-insensitive
// comparison.
func fieldSet(record models.Record) string {
	fields := record.Fields()
	sort.Strings(fields)
	return strings.Join(fields, ",")
}

// Ensure Service implements IntegrityService interface
var _ interfaces.IntegrityService = (*Service)(nil)
