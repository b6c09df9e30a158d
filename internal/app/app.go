// Package app wires configuration, storage, and services into a running
// probo instance and orchestrates suite runs end to end.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/probo/internal/common"
	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
	"github.com/ternarybob/probo/internal/services/dataset"
	"github.com/ternarybob/probo/internal/services/integrity"
	"github.com/ternarybob/probo/internal/services/pipeline"
	"github.com/ternarybob/probo/internal/services/report"
	"github.com/ternarybob/probo/internal/services/runner"
	"github.com/ternarybob/probo/internal/services/scheduler"
	"github.com/ternarybob/probo/internal/services/secure"
	"github.com/ternarybob/probo/internal/storage"
	"github.com/ternarybob/probo/internal/watch"
)

// App holds all application components and dependencies.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Storage interfaces.StorageManager

	Secure    *secure.Service
	Datasets  interfaces.DatasetService
	Runner    *runner.Service
	Integrity interfaces.IntegrityService
	Reports   interfaces.ReportService
	Pipeline  *pipeline.Service
	Scheduler interfaces.SchedulerService
}

// New initializes the application with all dependencies.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Debug().
		Str("environment", cfg.Environment).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage opens the run-history store.
func (a *App) initStorage() error {
	manager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.Storage = manager

	a.Logger.Debug().
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")
	return nil
}

// initServices constructs the service graph. The secure service comes
// first since the dataset service exports through it.
func (a *App) initServices() error {
	cipher, err := secure.NewService(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize secure service: %w", err)
	}
	a.Secure = cipher

	a.Datasets = dataset.NewService(a.Config, cipher, a.Logger)
	a.Runner = runner.NewService(a.Logger)
	a.Integrity = integrity.NewService(a.Datasets, a.Logger)
	a.Reports = report.NewService(a.Logger)
	a.Pipeline = pipeline.NewService(a.Datasets, a.Runner, a.Reports, a.Logger)
	a.Scheduler = scheduler.NewService(a.Logger)

	return nil
}

// Close stops background services and releases storage.
func (a *App) Close() error {
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler")
		}
	}

	if a.Storage != nil {
		if err := a.Storage.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Debug().Msg("Storage closed")
	}

	return nil
}

// RunSuite executes one suite end to end: compile its checks, load and run
// its sources, write report artifacts, and persist the run in history.
// Record failures do not fail RunSuite; callers judge the returned summary.
func (a *App) RunSuite(ctx context.Context, suite *models.Suite) (*models.RunReport, error) {
	if suite == nil {
		return nil, errors.New("suite is required")
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}

	fn, err := CompileChecks(suite.Checks)
	if err != nil {
		return nil, fmt.Errorf("suite %s checks: %w", suite.Name, err)
	}

	reportOpts := a.reportOptions(suite.Reports)
	runReport, err := a.Pipeline.Execute(ctx, pipeline.RunConfig{
		Label:     suite.Name,
		Sources:   suite.SourceRefs(),
		Fn:        fn,
		Execution: a.executionOptions(suite.Execution),
		Report:    &reportOpts,
	})
	if runReport != nil {
		a.saveRun(ctx, runReport)
	}
	return runReport, err
}

// ScheduleSuites registers every suite carrying a schedule and starts the
// scheduler when at least one is runnable. Returns the count registered,
// disabled suites included.
func (a *App) ScheduleSuites(ctx context.Context, suites []*models.Suite) (int, error) {
	registered := 0
	for _, suite := range suites {
		if suite.Schedule == "" {
			continue
		}
		s := suite
		handler := func() error {
			runReport, err := a.RunSuite(ctx, s)
			if err != nil {
				return err
			}
			if runReport.Summary != nil && !runReport.Summary.Succeeded() {
				summary := runReport.Summary
				return fmt.Errorf("%d of %d records did not pass", summary.Failed+summary.Errored, summary.Total)
			}
			return nil
		}
		if err := a.Scheduler.RegisterSuite(s, handler); err != nil {
			return registered, err
		}
		registered++
	}

	if registered == 0 {
		return 0, nil
	}
	if err := a.Scheduler.Start(); err != nil {
		return registered, err
	}

	a.Logger.Info().
		Int("suites", registered).
		Msg("Scheduler started")
	return registered, nil
}

// StartWatcher begins file-watch cache invalidation over the given paths
// and runs until the context is canceled.
func (a *App) StartWatcher(ctx context.Context, paths []string) (*watch.Watcher, error) {
	watcher, err := watch.NewWatcher(a.Datasets, a.Config.Watch.Debounce, a.Logger)
	if err != nil {
		return nil, err
	}
	for _, path := range paths {
		if err := watcher.Add(path); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	common.SafeGo(a.Logger, "watch", func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.Logger.Warn().Err(err).Msg("Watcher stopped")
		}
	})

	return watcher, nil
}

// executionOptions picks the suite's execution options, falling back to the
// configured defaults when the suite declares none. TOML cannot distinguish
// an unset bool from false, so inheritance is whole-struct, not per-field.
func (a *App) executionOptions(opts models.ExecutionOptions) models.ExecutionOptions {
	if opts == (models.ExecutionOptions{}) {
		return a.Config.Execution
	}
	return opts
}

// reportOptions fills unset report options from configuration.
func (a *App) reportOptions(opts models.ReportOptions) models.ReportOptions {
	if opts.Dir == "" {
		opts.Dir = a.Config.Reports.Dir
	}
	if len(opts.Formats) == 0 {
		opts.Formats = a.Config.Reports.Formats
	}
	if !opts.Pretty {
		opts.Pretty = a.Config.Reports.Pretty
	}
	return opts
}

// saveRun persists a run in history and prunes beyond the retention limit.
// History failures are logged, never surfaced; the run itself succeeded.
func (a *App) saveRun(ctx context.Context, runReport *models.RunReport) {
	runs := a.Storage.RunStorage()
	if err := runs.SaveRun(ctx, runReport); err != nil {
		a.Logger.Warn().
			Err(err).
			Str("run_id", runReport.ID).
			Msg("Failed to persist run history")
		return
	}

	if limit := a.Config.Storage.Badger.HistoryLimit; limit > 0 {
		if _, err := runs.Prune(ctx, limit); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to prune run history")
		}
	}
}
