// Package readers provides format-specific record readers and writers for
// CSV, Excel, and JSON data sources.
package readers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

var (
	// ErrNoRecords is returned when a source exists but holds no data rows.
	ErrNoRecords = errors.New("readers: source contains no records")

	// ErrNoHeader is returned when a tabular source has no header row.
	ErrNoHeader = errors.New("readers: source contains no header row")
)

// ForFormat returns the reader for a format.
func ForFormat(format models.Format) (interfaces.DatasetReader, error) {
	switch format {
	case models.FormatCSV:
		return NewCSVReader(), nil
	case models.FormatExcel:
		return NewExcelReader(), nil
	case models.FormatJSON:
		return NewJSONReader(), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownFormat, format)
	}
}

// WriterForFormat returns the writer for a format.
func WriterForFormat(format models.Format) (interfaces.DatasetWriter, error) {
	switch format {
	case models.FormatCSV:
		return NewCSVWriter(), nil
	case models.FormatExcel:
		return NewExcelWriter(), nil
	case models.FormatJSON:
		return NewJSONWriter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownFormat, format)
	}
}

// cellValue applies trim and type-inference options to a raw tabular cell.
// Inference only converts values that round-trip cleanly back to the source
// text, so "007" and "1e3" stay strings.
func cellValue(raw string, opts models.LoadOptions) any {
	value := raw
	if opts.TrimSpace {
		value = strings.TrimSpace(value)
	}
	if !opts.TypeInference || value == "" {
		return value
	}
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		if strconv.FormatFloat(f, 'f', -1, 64) == value {
			return f
		}
	}
	return value
}

// rowToRecord maps a tabular row onto the header index-wise. Short rows pad
// missing trailing fields with empty strings; extra cells beyond the header
// are dropped.
func rowToRecord(header []string, row []string, opts models.LoadOptions) models.Record {
	record := models.NewRecord()
	for i, field := range header {
		if i < len(row) {
			record.Set(field, cellValue(row[i], opts))
		} else {
			record.Set(field, "")
		}
	}
	return record
}

// unionFields returns the union of fields across records in first-seen
// order. Used by tabular writers to build the header row.
func unionFields(records []models.Record) []string {
	var fields []string
	seen := make(map[string]bool)
	for i := range records {
		for _, field := range records[i].Fields() {
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	return fields
}
