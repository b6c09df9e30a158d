// Package runner executes a caller-provided test function against loaded
// records, sequentially or with bounded concurrency, and aggregates the
// per-record outcomes into an execution summary.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// defaultWorkerCap bounds worker count when MaxWorkers is unset.
const defaultWorkerCap = 32

// panicError wraps a recovered panic from the test function.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// Service executes test functions against records.
type Service struct {
	logger arbor.ILogger

	// Progress, when set, receives each record result as it completes along
	// with the running completion count. Called from a single goroutine.
	Progress func(completed, total int, result models.RecordResult)
}

// NewService creates a new runner service.
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// Run executes fn once per record. Record outcomes never propagate as
// errors; the returned error reports invalid options, trace setup failure,
// or context cancellation. The summary is non-nil whenever the options were
// accepted, including early-stopped and canceled runs.
func (s *Service) Run(ctx context.Context, records []models.Record, fn interfaces.TestFunc, opts models.ExecutionOptions) (*models.ExecutionSummary, error) {
	if fn == nil {
		return nil, errors.New("test function is required")
	}
	if err := validator.New().Struct(&opts); err != nil {
		return nil, fmt.Errorf("invalid execution options: %w", err)
	}

	summary := models.NewExecutionSummary(len(records))
	if len(records) == 0 {
		summary.Finalize()
		return summary, nil
	}

	var trace *traceWriter
	if opts.TraceFile != "" {
		var err error
		trace, err = newTraceWriter(opts.TraceFile)
		if err != nil {
			return nil, err
		}
		defer trace.Close()
	}

	var limiter *rate.Limiter
	if opts.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), 1)
	}

	s.logger.Info().
		Int("records", len(records)).
		Bool("parallel", opts.Parallel).
		Msg("Run started")

	var runErr error
	if opts.Parallel {
		runErr = s.runParallel(ctx, records, fn, opts, summary, limiter, trace)
	} else {
		runErr = s.runSequential(ctx, records, fn, opts, summary, limiter, trace)
	}

	summary.Finalize()

	s.logger.Info().
		Int("total", summary.Total).
		Int("passed", summary.Passed).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Int("errored", summary.Errored).
		Bool("stopped", summary.Stopped).
		Str("duration", summary.Duration.String()).
		Msg("Run completed")

	return summary, runErr
}

// runSequential executes records strictly in order. A failure with
// ContinueOnFailure disabled, or context cancellation, marks the remaining
// records skipped.
func (s *Service) runSequential(ctx context.Context, records []models.Record, fn interfaces.TestFunc, opts models.ExecutionOptions, summary *models.ExecutionSummary, limiter *rate.Limiter, trace *traceWriter) error {
	every := progressInterval(opts, len(records))
	completed := 0
	stopReason := ""

	for i := range records {
		if stopReason == "" && ctx.Err() != nil {
			stopReason = "canceled"
			summary.Stopped = true
		}
		if stopReason != "" {
			s.record(summary, trace, skippedResult(i, stopReason), &completed, every, len(records))
			continue
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				stopReason = "canceled"
				summary.Stopped = true
				s.record(summary, trace, skippedResult(i, stopReason), &completed, every, len(records))
				continue
			}
		}

		result := s.executeRecord(ctx, i, records[i], fn, opts, 0)
		s.record(summary, trace, result, &completed, every, len(records))

		if !opts.ContinueOnFailure && (result.Status == models.StatusFailed || result.Status == models.StatusErrored) {
			stopReason = fmt.Sprintf("not executed: run stopped after record %d", i)
			summary.Stopped = true
		}
	}

	return ctx.Err()
}

// runParallel executes records with bounded concurrency. Scheduling stops on
// the first failure when ContinueOnFailure is disabled; in-flight records
// finish and unscheduled records are marked skipped.
func (s *Service) runParallel(ctx context.Context, records []models.Record, fn interfaces.TestFunc, opts models.ExecutionOptions, summary *models.ExecutionSummary, limiter *rate.Limiter, trace *traceWriter) error {
	workers := WorkerCount(opts)
	results := make(chan models.RecordResult, len(records))

	// Worker ids are recycled through a pool for result attribution
	workerIDs := make(chan int, workers)
	for id := 1; id <= workers; id++ {
		workerIDs <- id
	}

	var stopped atomic.Bool

	s.logger.Debug().
		Int("workers", workers).
		Int("records", len(records)).
		Msg("Parallel execution started")

	go func() {
		group := &errgroup.Group{}
		group.SetLimit(workers)

		for i := range records {
			if ctx.Err() != nil {
				results <- skippedResult(i, "canceled")
				continue
			}
			if stopped.Load() {
				results <- skippedResult(i, "not executed: run stopped after failure")
				continue
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results <- skippedResult(i, "canceled")
					continue
				}
			}

			idx := i
			group.Go(func() error {
				id := <-workerIDs
				defer func() { workerIDs <- id }()

				result := s.executeRecord(ctx, idx, records[idx], fn, opts, id)
				if !opts.ContinueOnFailure && (result.Status == models.StatusFailed || result.Status == models.StatusErrored) {
					stopped.Store(true)
				}
				results <- result
				return nil
			})
		}

		group.Wait()
		close(results)
	}()

	every := progressInterval(opts, len(records))
	completed := 0
	for result := range results {
		s.record(summary, trace, result, &completed, every, len(records))
	}

	if stopped.Load() || ctx.Err() != nil {
		summary.Stopped = true
	}
	return ctx.Err()
}

// executeRecord runs one record through the test function with retries and
// classifies the outcome.
func (s *Service) executeRecord(ctx context.Context, index int, record models.Record, fn interfaces.TestFunc, opts models.ExecutionOptions, worker int) models.RecordResult {
	result := models.RecordResult{Index: index, Worker: worker}
	if opts.EchoRecords {
		echo := record.Clone()
		result.Record = &echo
	}
	start := time.Now()

	for {
		result.Attempts++
		err := s.invoke(ctx, index, record, fn, opts.RecordTimeout)

		retryable := false
		switch {
		case err == nil:
			result.Status = models.StatusPassed
			result.Message = ""
		case IsSkip(err):
			result.Status = models.StatusSkipped
			result.Message = err.Error()
		case errors.Is(err, context.Canceled):
			result.Status = models.StatusSkipped
			result.Message = "canceled"
		case opts.RecordTimeout > 0 && errors.Is(err, context.DeadlineExceeded):
			result.Status = models.StatusErrored
			result.Message = fmt.Sprintf("timed out after %s", opts.RecordTimeout)
			retryable = true
		default:
			var pan *panicError
			if errors.As(err, &pan) {
				result.Status = models.StatusErrored
			} else {
				result.Status = models.StatusFailed
			}
			result.Message = err.Error()
			retryable = true
		}

		if retryable && result.Attempts <= opts.Retries {
			s.logger.Debug().
				Int("index", index).
				Int("attempt", result.Attempts).
				Str("message", result.Message).
				Msg("Retrying record")
			continue
		}
		break
	}

	result.Duration = time.Since(start)
	return result
}

// invoke runs one attempt of the test function, recovering panics and
// enforcing the per-record timeout. A test function that ignores its
// context holds its goroutine until it returns.
func (s *Service) invoke(ctx context.Context, index int, record models.Record, fn interfaces.TestFunc, timeout time.Duration) error {
	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error().
					Int("index", index).
					Str("panic", fmt.Sprintf("%v", r)).
					Str("stack", string(debug.Stack())).
					Msg("Test function panicked")
				done <- &panicError{value: r}
			}
		}()
		done <- fn(runCtx, index, record)
	}()

	select {
	case err := <-done:
		return err
	case <-runCtx.Done():
		return runCtx.Err()
	}
}

// record folds one result into the summary, trace, progress callback, and
// periodic progress log.
func (s *Service) record(summary *models.ExecutionSummary, trace *traceWriter, result models.RecordResult, completed *int, every, total int) {
	summary.Add(result)
	trace.Record(result)

	switch result.Status {
	case models.StatusFailed:
		s.logger.Warn().
			Int("index", result.Index).
			Str("message", result.Message).
			Msg("Record failed")
	case models.StatusErrored:
		s.logger.Error().
			Int("index", result.Index).
			Str("message", result.Message).
			Msg("Record errored")
	}

	*completed++
	if s.Progress != nil {
		s.Progress(*completed, total, result)
	}
	if every > 0 && *completed%every == 0 && *completed < total {
		s.logger.Info().
			Int("completed", *completed).
			Int("total", total).
			Int("passed", summary.Passed).
			Int("failed", summary.Failed).
			Msg("Run progress")
	}
}

// skippedResult builds a skipped outcome for an unexecuted record.
func skippedResult(index int, reason string) models.RecordResult {
	return models.RecordResult{
		Index:   index,
		Status:  models.StatusSkipped,
		Message: reason,
	}
}

// WorkerCount resolves the effective parallel worker count for the given
// options. Zero MaxWorkers means one worker per CPU, capped; sequential
// runs use a single worker.
func WorkerCount(opts models.ExecutionOptions) int {
	if !opts.Parallel {
		return 1
	}
	if opts.MaxWorkers > 0 {
		return opts.MaxWorkers
	}
	workers := runtime.NumCPU()
	if workers > defaultWorkerCap {
		workers = defaultWorkerCap
	}
	return workers
}

// progressInterval resolves how often progress is logged. ChunkSize wins
// when set; otherwise roughly every tenth of the run.
func progressInterval(opts models.ExecutionOptions, total int) int {
	if opts.ChunkSize > 0 {
		return opts.ChunkSize
	}
	every := total / 10
	if every < 1 {
		every = 1
	}
	if every > 100 {
		every = 100
	}
	return every
}

// Ensure Service implements RunnerService interface
var _ interfaces.RunnerService = (*Service)(nil)
