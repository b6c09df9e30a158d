package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ternarybob/probo/internal/models"
)

func TestTraceWriterLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace", "run.jsonl")

	trace, err := newTraceWriter(path)
	if err != nil {
		t.Fatalf("failed to open trace: %v", err)
	}

	trace.Record(models.RecordResult{Index: 0, Status: models.StatusPassed, Duration: 5 * time.Millisecond, Attempts: 1})
	trace.Record(models.RecordResult{Index: 1, Status: models.StatusFailed, Message: "boom", Attempts: 2, Worker: 3})

	if err := trace.Close(); err != nil {
		t.Fatalf("failed to close trace: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open trace file: %v", err)
	}
	defer file.Close()

	var lines []map[string]any
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			t.Fatalf("trace line is not valid JSON: %v", err)
		}
		lines = append(lines, entry)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("failed to scan trace file: %v", err)
	}

	if len(lines) != 2 {
		t.Fatalf("expected 2 trace lines, got %d", len(lines))
	}
	if got := lines[0]["status"]; got != "passed" {
		t.Errorf("expected passed status, got %v", got)
	}
	if got := lines[1]["message"]; got != "boom" {
		t.Errorf("expected failure message, got %v", got)
	}
	if got, ok := lines[1]["worker"].(float64); !ok || int(got) != 3 {
		t.Errorf("expected worker 3, got %v", lines[1]["worker"])
	}
}

func TestRunWithTraceFile(t *testing.T) {
	svc := newTestRunner()
	path := filepath.Join(t.TempDir(), "run.jsonl")

	summary, err := svc.Run(context.Background(), testRecords(3), passAll, models.ExecutionOptions{
		ContinueOnFailure: true,
		TraceFile:         path,
	})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if summary.Passed != 3 {
		t.Fatalf("expected 3 passed, got %d", summary.Passed)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected trace file written: %v", err)
	}

	count := 0
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			count++
		}
	}
	if count != 3 {
		t.Errorf("expected one trace line per record, got %d", count)
	}
}
