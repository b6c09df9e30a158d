// Package pipeline composes dataset loading, record execution, and report
// writing into complete multi-source runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/runner"
)

// TestFunc is the per-record callback for multi-source runs. The source
// label identifies which data source the record came from.
type TestFunc func(ctx context.Context, source string, index int, record models.Record) error

// RunConfig describes one pipeline run.
type RunConfig struct {
	Label     string                  // Run label recorded on the report; optional
	Sources   []models.SourceRef      // Data sources, processed in order
	Fn        TestFunc                // Per-record test callback
	Execution models.ExecutionOptions // Execution tuning shared by every source
	Report    *models.ReportOptions   // Non-nil writes report artifacts after the run
}

// Service runs a test function across one or more data sources and
// assembles the combined run report.
type Service struct {
	datasets interfaces.DatasetService
	runner   interfaces.RunnerService
	reports  interfaces.ReportService
	logger   arbor.ILogger
}

// NewService creates a new pipeline service.
func NewService(datasets interfaces.DatasetService, run interfaces.RunnerService, reports interfaces.ReportService, logger arbor.ILogger) *Service {
	return &Service{
		datasets: datasets,
		runner:   run,
		reports:  reports,
		logger:   logger,
	}
}

// Execute loads each source in order and runs the test function against its
// records, merging per-source outcomes into one report. Record results carry
// their source label and keep their index within that source.
//
// A source that fails to load is logged and skipped when ContinueOnFailure
// is set; otherwise the load error aborts the run before later sources are
// touched. A run stopped early by a record failure does not load the
// remaining sources. The returned report is non-nil whenever execution
// began; the error reports load failures, invalid options, or cancellation.
func (s *Service) Execute(ctx context.Context, cfg RunConfig) (*models.RunReport, error) {
	if cfg.Fn == nil {
		return nil, errors.New("test function is required")
	}
	if len(cfg.Sources) == 0 {
		return nil, errors.New("at least one data source is required")
	}
	if err := validator.New().Struct(&cfg.Execution); err != nil {
		return nil, fmt.Errorf("invalid execution options: %w", err)
	}

	s.logger.Info().
		Str("label", cfg.Label).
		Int("sources", len(cfg.Sources)).
		Bool("parallel", cfg.Execution.Parallel).
		Msg("Pipeline run started")

	merged := models.NewExecutionSummary(0)
	var runErr error

	for _, src := range cfg.Sources {
		if err := ctx.Err(); err != nil {
			merged.Stopped = true
			runErr = err
			break
		}

		label := src.DisplayLabel()
		records, err := s.datasets.Load(ctx, src.DataSource)
		if err != nil {
			if cfg.Execution.ContinueOnFailure {
				s.logger.Warn().
					Err(err).
					Str("source", label).
					Msg("Source failed to load, continuing with remaining sources")
				continue
			}
			return nil, fmt.Errorf("failed to load source %s: %w", label, err)
		}

		fn := func(ctx context.Context, index int, record models.Record) error {
			return cfg.Fn(ctx, label, index, record)
		}
		summary, err := s.runner.Run(ctx, records, fn, cfg.Execution)
		if summary != nil {
			merged.Total += summary.Total
			for _, result := range summary.Results {
				result.Source = label
				merged.Add(result)
			}
			if summary.Stopped {
				merged.Stopped = true
			}
		}
		if err != nil {
			runErr = err
			break
		}
		if merged.Stopped && !cfg.Execution.ContinueOnFailure {
			break
		}
	}

	// Results stay grouped by source in source order, each group already in
	// record order, so the single-run Finalize sort does not apply here.
	merged.CompletedAt = time.Now()
	merged.Duration = merged.CompletedAt.Sub(merged.StartedAt)

	report := &models.RunReport{
		ID:          common.NewRunID(),
		SuiteName:   cfg.Label,
		Source:      describeSources(cfg.Sources),
		Summary:     merged,
		Environment: s.environment(cfg.Execution),
		CreatedAt:   time.Now(),
	}

	s.logger.Info().
		Str("run_id", report.ID).
		Int("total", merged.Total).
		Int("passed", merged.Passed).
		Int("failed", merged.Failed).
		Int("skipped", merged.Skipped).
		Int("errored", merged.Errored).
		Bool("stopped", merged.Stopped).
		Msg("Pipeline run completed")

	if cfg.Report != nil {
		if paths, err := s.reports.WriteReport(report, *cfg.Report); err != nil {
			// The in-memory summary stands even when artifacts fail to write
			s.logger.Warn().
				Err(err).
				Str("run_id", report.ID).
				Msg("Failed to write report artifacts")
		} else {
			s.logger.Debug().
				Int("artifacts", len(paths)).
				Msg("Report artifacts written")
		}
	}

	return report, runErr
}

// environment captures where this run executed.
func (s *Service) environment(opts models.ExecutionOptions) models.Environment {
	hostname, _ := os.Hostname()
	return models.Environment{
		Version:   common.GetVersion(),
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Hostname:  hostname,
		Workers:   runner.WorkerCount(opts),
	}
}

// describeSources summarizes the source list for the run report.
func describeSources(sources []models.SourceRef) string {
	parts := make([]string, 0, len(sources))
	for i := range sources {
		parts = append(parts, sources[i].String())
	}
	return strings.Join(parts, ", ")
}
