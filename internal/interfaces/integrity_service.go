package interfaces

import (
	"context"

	"github.com/ternarybob/probo/internal/models"
)

// IntegrityService validates data sources before they are used in runs.
type IntegrityService interface {
	// Check inspects each source for readability, emptiness, duplicate
	// records, and ragged field sets. Only systemic failures return an
	// error; per-source findings land in the report.
	Check(ctx context.Context, sources []models.DataSource) (*models.IntegrityReport, error)
}
