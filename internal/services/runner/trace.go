package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	plog "github.com/phuslu/log"

	"github.com/ternarybob/probo/internal/models"
)

// traceWriter appends one JSON line per record result to a trace file.
type traceWriter struct {
	logger *plog.Logger
	file   *plog.FileWriter
}

// newTraceWriter opens a JSONL trace file, creating parent directories.
func newTraceWriter(path string) (*traceWriter, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory %s: %w", dir, err)
		}
	}

	file := &plog.FileWriter{
		Filename:   path,
		FileMode:   0644,
		MaxBackups: 1,
		LocalTime:  true,
	}

	return &traceWriter{
		logger: &plog.Logger{
			Level:      plog.InfoLevel,
			TimeField:  "time",
			TimeFormat: time.RFC3339,
			Writer:     file,
		},
		file: file,
	}, nil
}

// Record appends one result line.
func (t *traceWriter) Record(result models.RecordResult) {
	if t == nil {
		return
	}
	entry := t.logger.Info().
		Int("index", result.Index).
		Str("status", string(result.Status)).
		Dur("duration", result.Duration).
		Int("attempts", result.Attempts)
	if result.Worker > 0 {
		entry = entry.Int("worker", result.Worker)
	}
	if result.Message != "" {
		entry = entry.Str("message", result.Message)
	}
	entry.Msg("record")
}

// Close flushes and closes the trace file.
func (t *traceWriter) Close() error {
	if t == nil {
		return nil
	}
	return t.file.Close()
}
