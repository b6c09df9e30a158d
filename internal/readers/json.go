package readers

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// JSONReader reads records from JSON files holding an array of objects.
type JSONReader struct{}

// NewJSONReader creates a new JSON reader.
func NewJSONReader() *JSONReader {
	return &JSONReader{}
}

var _ interfaces.DatasetReader = (*JSONReader)(nil)

// Format returns the format this reader handles.
func (r *JSONReader) Format() models.Format {
	return models.FormatJSON
}

// Read loads all records from a JSON array of objects. Object key order is
// preserved as field order. JSON values are already typed, so TypeInference
// does not apply; TrimSpace still trims string values.
func (r *JSONReader) Read(ctx context.Context, path string, opts models.LoadOptions) ([]models.Record, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json file %s: %w", path, err)
	}

	var records []models.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse json file %s (must be an array of objects): %w", path, err)
	}

	if opts.TrimSpace {
		for i := range records {
			for _, field := range records[i].Fields() {
				if value, _ := records[i].Get(field); value != nil {
					if s, ok := value.(string); ok {
						records[i].Set(field, strings.TrimSpace(s))
					}
				}
			}
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, path)
	}
	return records, nil
}

// JSONWriter writes records as a JSON array of objects.
type JSONWriter struct{}

// NewJSONWriter creates a new JSON writer.
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{}
}

var _ interfaces.DatasetWriter = (*JSONWriter)(nil)

// Format returns the format this writer handles.
func (w *JSONWriter) Format() models.Format {
	return models.FormatJSON
}

// Write persists records as a JSON array, preserving field order within each
// object. An empty record slice produces an empty array document.
func (w *JSONWriter) Write(ctx context.Context, records []models.Record, target models.ExportTarget) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}

	if err := os.MkdirAll(filepath.Dir(target.Path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	if records == nil {
		records = []models.Record{}
	}

	var data []byte
	var err error
	if target.Pretty {
		data, err = json.MarshalIndent(records, "", "  ")
	} else {
		data, err = json.Marshal(records)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to marshal records: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(target.Path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write json file %s: %w", target.Path, err)
	}
	return int64(len(data)), nil
}
