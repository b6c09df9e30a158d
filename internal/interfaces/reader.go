// Package interfaces provides service interfaces for dependency injection.
package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// DatasetReader decodes records from one source format.
type DatasetReader interface {
	// Read loads all records from the file at path.
	Read(ctx context.Context, path string, opts models.LoadOptions) ([]models.Record, error)

	// Format returns the format this reader handles.
	Format() models.Format
}

// DatasetWriter encodes records into one target format.
type DatasetWriter interface {
	// Write persists records to the target path, returning bytes written.
	Write(ctx context.Context, records []models.Record, target models.ExportTarget) (int64, error)

	// Format returns the format this writer handles.
	Format() models.Format
}
