package models

import (
	"sort"
	"time"
)

// ExecutionStatus classifies the outcome of a single record execution.
type ExecutionStatus string

// ExecutionStatus constants
const (
	StatusPassed  ExecutionStatus = "passed"
	StatusFailed  ExecutionStatus = "failed"
	StatusSkipped ExecutionStatus = "skipped"
	StatusErrored ExecutionStatus = "errored"
)

// IsValidExecutionStatus checks if a given ExecutionStatus is one of the valid constants
func IsValidExecutionStatus(status ExecutionStatus) bool {
	switch status {
	case StatusPassed, StatusFailed, StatusSkipped, StatusErrored:
		return true
	default:
		return false
	}
}

// ExecutionOptions tunes how records are executed against the test function.
type ExecutionOptions struct {
	Parallel          bool          `json:"parallel" toml:"parallel" yaml:"parallel"`                                                 // Execute records concurrently
	MaxWorkers        int           `json:"max_workers,omitempty" toml:"max_workers" yaml:"max_workers" validate:"gte=0,lte=256"`     // 0 means NumCPU, capped at 32
	ChunkSize         int           `json:"chunk_size,omitempty" toml:"chunk_size" yaml:"chunk_size" validate:"gte=0"`                // Progress reporting granularity in parallel mode; 0 means automatic
	ContinueOnFailure bool          `json:"continue_on_failure" toml:"continue_on_failure" yaml:"continue_on_failure"`                // False stops scheduling new records after the first failure
	RecordTimeout     time.Duration `json:"record_timeout,omitempty" toml:"record_timeout" yaml:"record_timeout"`                     // Per-record deadline; 0 means none
	Retries           int           `json:"retries,omitempty" toml:"retries" yaml:"retries" validate:"gte=0,lte=10"`                  // Re-attempts for failed or errored records
	RatePerSecond     float64       `json:"rate_per_second,omitempty" toml:"rate_per_second" yaml:"rate_per_second" validate:"gte=0"` // Record pacing; 0 means unlimited
	TraceFile         string        `json:"trace_file,omitempty" toml:"trace_file" yaml:"trace_file"`                                 // JSONL per-record trace log path; empty disables tracing
	EchoRecords       bool          `json:"echo_records,omitempty" toml:"echo_records" yaml:"echo_records"`                           // Copy each executed record onto its result
}

// RecordResult captures the outcome of one record execution.
type RecordResult struct {
	Index    int             `json:"index"`              // Original index within the record's source
	Source   string          `json:"source,omitempty"`   // Source label, set in multi-source runs
	Status   ExecutionStatus `json:"status"`
	Message  string          `json:"message,omitempty"`  // Failure/skip reason
	Duration time.Duration   `json:"duration"`
	Attempts int             `json:"attempts"`
	Worker   int             `json:"worker,omitempty"`   // Worker id in parallel mode
	Record   *Record         `json:"record,omitempty"`   // Echo of the executed record when EchoRecords is set
}

// ExecutionSummary aggregates record results for one run. Results are kept
// in original record order after Finalize.
type ExecutionSummary struct {
	Total       int            `json:"total"`
	Passed      int            `json:"passed"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	Errored     int            `json:"errored"`
	Stopped     bool           `json:"stopped,omitempty"` // Run halted early on failure or cancellation
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
	Duration    time.Duration  `json:"duration"`
	Results     []RecordResult `json:"results"`
}

// NewExecutionSummary creates a summary for the given record count.
func NewExecutionSummary(total int) *ExecutionSummary {
	return &ExecutionSummary{
		Total:     total,
		StartedAt: time.Now(),
		Results:   make([]RecordResult, 0, total),
	}
}

// Add appends a record result and updates the tallies.
func (s *ExecutionSummary) Add(result RecordResult) {
	switch result.Status {
	case StatusPassed:
		s.Passed++
	case StatusFailed:
		s.Failed++
	case StatusSkipped:
		s.Skipped++
	case StatusErrored:
		s.Errored++
	}
	s.Results = append(s.Results, result)
}

// Finalize stamps completion, computes duration, and sorts results back to
// original record order.
func (s *ExecutionSummary) Finalize() {
	s.CompletedAt = time.Now()
	s.Duration = s.CompletedAt.Sub(s.StartedAt)
	sort.Slice(s.Results, func(i, j int) bool {
		return s.Results[i].Index < s.Results[j].Index
	})
}

// Succeeded reports whether the run had no failed and no errored records.
// Skipped records do not count against success.
func (s *ExecutionSummary) Succeeded() bool {
	return s.Failed == 0 && s.Errored == 0
}

// Environment describes where a run executed.
type Environment struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	Hostname  string `json:"hostname,omitempty"`
	Workers   int    `json:"workers,omitempty"`
}

// RunReport is the persisted record of a completed run.
type RunReport struct {
	ID          string            `json:"id" badgerhold:"key"`
	SuiteName   string            `json:"suite_name,omitempty" badgerhold:"index"`
	Source      string            `json:"source"` // Descriptor summary, e.g. "testdata/users.csv (csv)"
	Summary     *ExecutionSummary `json:"summary"`
	Environment Environment       `json:"environment"`
	CreatedAt   time.Time         `json:"created_at" badgerhold:"index"`
}

// CacheStats reports record cache usage counters.
type CacheStats struct {
	Entries   int       `json:"entries"`
	Records   int       `json:"records"`
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Evictions int64     `json:"evictions"`
	SizeBytes int64     `json:"size_bytes"` // Approximate in-memory footprint
	Oldest    time.Time `json:"oldest"`     // Zero when the cache is empty
}

// HitRatio returns hits / (hits + misses), or 0 when no lookups happened.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
