package readers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ternarybob/probo/internal/models"
)

// TestExcelWriteReadRoundTrip verifies records survive a workbook round trip
func TestExcelWriteReadRoundTrip(t *testing.T) {
	rec1 := models.NewRecord()
	rec1.Set("id", float64(1))
	rec1.Set("name", "alice")
	rec1.Set("active", true)
	rec2 := models.NewRecord()
	rec2.Set("id", float64(2))
	rec2.Set("name", "bob")
	rec2.Set("active", false)

	path := filepath.Join(t.TempDir(), "data.xlsx")
	target := models.ExportTarget{Path: path, Sheet: "TestData"}

	bytesWritten, err := NewExcelWriter().Write(context.Background(), []models.Record{rec1, rec2}, target)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if bytesWritten == 0 {
		t.Error("Write reported zero bytes")
	}

	// Named sheet must be honored
	opts := models.LoadOptions{Sheet: "TestData", TypeInference: true, TrimSpace: true}
	records, err := NewExcelReader().Read(context.Background(), path, opts)
	if err != nil {
		t.Fatalf("Read back failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("round trip loaded %d records, want 2", len(records))
	}

	if v, _ := records[0].Get("id"); v != float64(1) {
		t.Errorf("id = %v (%T), want 1 (float64)", v, v)
	}
	if v := records[0].GetString("name"); v != "alice" {
		t.Errorf("name = %q, want alice", v)
	}

	// Excel booleans render as TRUE/FALSE text in the streaming reader, so
	// accept either typed or textual form here.
	v, _ := records[1].Get("active")
	switch v {
	case false, "FALSE", "false":
	default:
		t.Errorf("active = %v (%T), want a false-ish value", v, v)
	}
}

// TestExcelReaderFirstSheetDefault verifies the first sheet is used when unset
func TestExcelReaderFirstSheetDefault(t *testing.T) {
	rec := models.NewRecord()
	rec.Set("k", "v")

	path := filepath.Join(t.TempDir(), "single.xlsx")
	if _, err := NewExcelWriter().Write(context.Background(), []models.Record{rec}, models.ExportTarget{Path: path}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := NewExcelReader().Read(context.Background(), path, models.LoadOptions{})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if v := records[0].GetString("k"); v != "v" {
		t.Errorf("k = %q, want v", v)
	}
}

// TestExcelReaderMissingSheet verifies a clear error for unknown sheets
func TestExcelReaderMissingSheet(t *testing.T) {
	rec := models.NewRecord()
	rec.Set("k", "v")

	path := filepath.Join(t.TempDir(), "single.xlsx")
	if _, err := NewExcelWriter().Write(context.Background(), []models.Record{rec}, models.ExportTarget{Path: path}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := NewExcelReader().Read(context.Background(), path, models.LoadOptions{Sheet: "Nope"}); err == nil {
		t.Error("unknown sheet should error")
	}
}

// TestExcelReaderMissingFile verifies open failures surface
func TestExcelReaderMissingFile(t *testing.T) {
	if _, err := NewExcelReader().Read(context.Background(), "/nonexistent/x.xlsx", models.LoadOptions{}); err == nil {
		t.Error("missing file should error")
	}
}
