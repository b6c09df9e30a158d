package readers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// CSVReader reads records from delimited text files.
type CSVReader struct{}

// NewCSVReader creates a new CSV reader.
func NewCSVReader() *CSVReader {
	return &CSVReader{}
}

var _ interfaces.DatasetReader = (*CSVReader)(nil)

// Format returns the format this reader handles.
func (r *CSVReader) Format() models.Format {
	return models.FormatCSV
}

// Read loads all records from a CSV file. The first row is the header; data
// rows map onto it index-wise.
func (r *CSVReader) Read(ctx context.Context, path string, opts models.LoadOptions) ([]models.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = opts.DelimiterRune()
	reader.FieldsPerRecord = -1 // Ragged rows are padded, not rejected

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header from %s: %w", path, err)
	}

	var records []models.Record
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row from %s: %w", path, err)
		}
		records = append(records, rowToRecord(header, row, opts))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, path)
	}
	return records, nil
}

// CSVWriter writes records to delimited text files.
type CSVWriter struct{}

// NewCSVWriter creates a new CSV writer.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

var _ interfaces.DatasetWriter = (*CSVWriter)(nil)

// Format returns the format this writer handles.
func (w *CSVWriter) Format() models.Format {
	return models.FormatCSV
}

// Write persists records as CSV. The header is the union of fields across
// records in first-seen order; an empty record slice produces a header-free
// empty file.
func (w *CSVWriter) Write(ctx context.Context, records []models.Record, target models.ExportTarget) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target.Path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(target.Path)
	if err != nil {
		return 0, fmt.Errorf("failed to create csv file %s: %w", target.Path, err)
	}
	defer file.Close()

	counter := &countingWriter{w: file}
	writer := csv.NewWriter(counter)
	writer.Comma = target.DelimiterRune()

	fields := unionFields(records)
	if len(fields) > 0 {
		if err := writer.Write(fields); err != nil {
			return counter.n, fmt.Errorf("failed to write csv header: %w", err)
		}
	}

	for i := range records {
		select {
		case <-ctx.Done():
			return counter.n, ctx.Err()
		default:
		}

		row := make([]string, len(fields))
		for j, field := range fields {
			row[j] = records[i].GetString(field)
		}
		if err := writer.Write(row); err != nil {
			return counter.n, fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return counter.n, fmt.Errorf("failed to flush csv file %s: %w", target.Path, err)
	}
	return counter.n, nil
}

// countingWriter tracks bytes written through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
