package interfaces

import (
	"github.com/ternarybob/probo/internal/models"
)

// ReportService writes run reports to disk in one or more formats.
type ReportService interface {
	// WriteReport writes the report in each requested format and returns
	// the paths written. A failure on one format does not abort the rest;
	// the combined error reports every failed format.
	WriteReport(report *models.RunReport, opts models.ReportOptions) ([]string, error)

	// WriteJSON writes the canonical JSON report artifact.
	WriteJSON(report *models.RunReport, path string, pretty bool) error
}
