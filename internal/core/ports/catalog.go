package ports

import (
	"context"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// Catalog is the loaded, read-only recommendation artifact bundle.
type Catalog interface {
	Size() int
	Track(index int) (domain.TrackRecord, bool)
	MatchTitle(title string) []domain.TrackRecord
	SuggestTitles(title string, limit int) []string
	Schema() domain.FeatureSchema
	Transform(features []float64) ([]float64, error)
	// Neighbors returns at most k catalog rows by ascending distance.
	Neighbors(query []float64, k int) ([]domain.Neighbor, error)
}

// CatalogLoader returns the loaded catalog, loading it on first use.
type CatalogLoader interface {
	Load(ctx context.Context) (Catalog, error)
}
