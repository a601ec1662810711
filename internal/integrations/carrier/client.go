package carrier

import (
	"context"

	"github.com/BearBump/ShipReport/internal/models"
)

// Client looks up tracking documents with one API key. Implementations return an
// error for any failed call so the caller can skip the batch.
type Client interface {
	GetStatusDocuments(ctx context.Context, apiKey string, numbers []string) ([]models.TrackingRecord, error)
}
