package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ternarybob/probo/internal/models"
)

// writePDF renders a one-page run summary and writes it to path.
func (s *Service) writePDF(report *models.RunReport, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()

	title := report.ID
	if report.SuiteName != "" {
		title = report.SuiteName
	}
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "Test Run: "+title, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, "Run ID: "+report.ID, "", 1, "L", false, 0, "")
	if report.Source != "" {
		pdf.CellFormat(0, 5, "Source: "+report.Source, "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(0, 5, "Created: "+report.CreatedAt.Format(time.RFC3339), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	summary := report.Summary
	if summary == nil {
		pdf.CellFormat(0, 5, "No execution summary recorded.", "", 1, "L", false, 0, "")
		return outputPDF(pdf, path)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")

	headers := []string{"Total", "Passed", "Failed", "Skipped", "Errored", "Duration"}
	values := []string{
		fmt.Sprintf("%d", summary.Total),
		fmt.Sprintf("%d", summary.Passed),
		fmt.Sprintf("%d", summary.Failed),
		fmt.Sprintf("%d", summary.Skipped),
		fmt.Sprintf("%d", summary.Errored),
		summary.Duration.Round(time.Millisecond).String(),
	}

	colWidth := 190.0 / float64(len(headers))
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, header := range headers {
		pdf.CellFormat(colWidth, 7, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, value := range values {
		pdf.CellFormat(colWidth, 7, value, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.Ln(3)

	if summary.Total > 0 {
		rate := float64(summary.Passed) / float64(summary.Total) * 100
		line := fmt.Sprintf("Pass rate: %.1f%%", rate)
		if summary.Stopped {
			line += " (run stopped early)"
		}
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	if env := report.Environment; env.Version != "" || env.OS != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Environment", "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		if env.Version != "" {
			pdf.CellFormat(0, 5, "Version: "+env.Version, "", 1, "L", false, 0, "")
		}
		if env.GoVersion != "" {
			pdf.CellFormat(0, 5, "Go: "+env.GoVersion, "", 1, "L", false, 0, "")
		}
		if env.OS != "" {
			pdf.CellFormat(0, 5, "Platform: "+env.OS+"/"+env.Arch, "", 1, "L", false, 0, "")
		}
		if env.Hostname != "" {
			pdf.CellFormat(0, 5, "Host: "+env.Hostname, "", 1, "L", false, 0, "")
		}
		if env.Workers > 0 {
			pdf.CellFormat(0, 5, fmt.Sprintf("Workers: %d", env.Workers), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	if failures := failedResults(summary); len(failures) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, "Failures", "", 1, "L", false, 0, "")

		widths := []float64{20, 25, 20, 125}
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range []string{"Record", "Status", "Attempts", "Message"} {
			pdf.CellFormat(widths[i], 7, header, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 8)
		for _, result := range failures {
			pdf.CellFormat(widths[0], 6, fmt.Sprintf("%d", result.Index), "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[1], 6, string(result.Status), "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[2], 6, fmt.Sprintf("%d", result.Attempts), "1", 0, "C", false, 0, "")
			pdf.CellFormat(widths[3], 6, truncateMessage(result.Message, 90), "1", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	return outputPDF(pdf, path)
}

// outputPDF renders the document to bytes and writes the file.
func outputPDF(pdf *fpdf.Fpdf, path string) error {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("failed to generate PDF output: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// truncateMessage keeps table cells on one line.
func truncateMessage(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
