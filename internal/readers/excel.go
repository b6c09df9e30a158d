package readers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/ternarybob/probo/internal/interfaces"
	"github.com/ternarybob/probo/internal/models"
)

// ExcelReader reads records from xlsx workbooks.
type ExcelReader struct{}

// NewExcelReader creates a new Excel reader.
func NewExcelReader() *ExcelReader {
	return &ExcelReader{}
}

var _ interfaces.DatasetReader = (*ExcelReader)(nil)

// Format returns the format this reader handles.
func (r *ExcelReader) Format() models.Format {
	return models.FormatExcel
}

// Read loads all records from an Excel workbook using the streaming row
// reader. The sheet is opts.Sheet, or the first sheet when unset. The first
// row is the header; data rows map onto it index-wise.
func (r *ExcelReader) Read(ctx context.Context, path string, opts models.LoadOptions) ([]models.Record, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer file.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = file.GetSheetName(0)
		if sheet == "" {
			sheetList := file.GetSheetList()
			if len(sheetList) == 0 {
				return nil, fmt.Errorf("no sheets found in xlsx file %s", path)
			}
			sheet = sheetList[0]
		}
	} else {
		index, err := file.GetSheetIndex(sheet)
		if err != nil || index < 0 {
			return nil, fmt.Errorf("sheet %q not found in xlsx file %s", sheet, path)
		}
	}

	rows, err := file.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, path)
	}
	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoHeader, path)
	}

	var records []models.Record
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from %s: %w", path, err)
		}
		if len(row) == 0 {
			continue // Skip fully empty rows
		}
		records = append(records, rowToRecord(header, row, opts))
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoRecords, path)
	}
	return records, nil
}

// ExcelWriter writes records to xlsx workbooks.
type ExcelWriter struct{}

// NewExcelWriter creates a new Excel writer.
func NewExcelWriter() *ExcelWriter {
	return &ExcelWriter{}
}

var _ interfaces.DatasetWriter = (*ExcelWriter)(nil)

// Format returns the format this writer handles.
func (w *ExcelWriter) Format() models.Format {
	return models.FormatExcel
}

// Write persists records to a single-sheet workbook with a bold header row.
// Values keep their native types so numbers and booleans survive a reload.
func (w *ExcelWriter) Write(ctx context.Context, records []models.Record, target models.ExportTarget) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target.Path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create export directory: %w", err)
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := target.SheetName()
	if sheet != "Sheet1" {
		if err := file.SetSheetName("Sheet1", sheet); err != nil {
			return 0, fmt.Errorf("failed to name sheet %q: %w", sheet, err)
		}
	}

	fields := unionFields(records)
	if len(fields) > 0 {
		headerRow := make([]interface{}, len(fields))
		for i, field := range fields {
			headerRow[i] = field
		}
		if err := file.SetSheetRow(sheet, "A1", &headerRow); err != nil {
			return 0, fmt.Errorf("failed to write header row: %w", err)
		}

		style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err == nil {
			file.SetRowStyle(sheet, 1, 1, style)
		}
	}

	for i := range records {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		row := make([]interface{}, len(fields))
		for j, field := range fields {
			value, _ := records[i].Get(field)
			row[j] = value
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, fmt.Errorf("failed to build cell name for row %d: %w", i, err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := file.SaveAs(target.Path); err != nil {
		return 0, fmt.Errorf("failed to save xlsx file %s: %w", target.Path, err)
	}

	info, err := os.Stat(target.Path)
	if err != nil {
		return 0, nil
	}
	return info.Size(), nil
}
