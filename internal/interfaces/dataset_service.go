package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// DatasetService loads, caches, and exports test data records.
type DatasetService interface {
	// Load reads records described by the source descriptor, applying
	// filtering and sampling, through the record cache.
	Load(ctx context.Context, source models.DataSource) ([]models.Record, error)

	// Export writes records to the target, applying field encryption and
	// masking when configured.
	Export(ctx context.Context, records []models.Record, target models.ExportTarget) (*models.ExportResult, error)

	// ClearCache drops all cached entries and returns the count evicted.
	ClearCache() int

	// CacheStats returns cache usage counters.
	CacheStats() models.CacheStats

	// InvalidatePath evicts cache entries backed by the given file path.
	// Returns the count evicted. Used by file-watch invalidation.
	InvalidatePath(path string) int
}
