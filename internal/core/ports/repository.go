package ports

import (
	"context"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// CatalogRepository reads the tabular catalog.
type CatalogRepository interface {
	LoadTracks(ctx context.Context) ([]domain.TrackRecord, error)
}
