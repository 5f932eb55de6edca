package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
)

// MaxNeighbors caps how many neighbours are requested from the index, not counting the self-match.
const MaxNeighbors = 100

// ErrInvalidCount indicates a non-positive recommendation count.
var ErrInvalidCount = errors.New("service: recommendation count must be positive")

// Recommender runs nearest-neighbour queries against a loaded catalog.
type Recommender struct {
	metrics *metrics.Metrics
}

// NewRecommender constructs a Recommender.
func NewRecommender(m *metrics.Metrics) *Recommender {
	return &Recommender{metrics: m}
}

// Recommend returns up to count internal indices ordered by ascending distance
// from the selected row. The selected row itself is never part of the result.
func (r *Recommender) Recommend(catalog ports.Catalog, selected int, count int) ([]int, error) {
	if count <= 0 {
		return nil, ErrInvalidCount
	}
	track, ok := catalog.Track(selected)
	if !ok {
		return nil, fmt.Errorf("service: recommend for %d: %w", selected, domain.ErrUnknownTrack)
	}

	start := time.Now()
	defer func() { r.metrics.ObserveRecommend(time.Since(start)) }()

	features, err := track.FeatureVector(catalog.Schema().All())
	if err != nil {
		return nil, fmt.Errorf("service: extracting features: %w", err)
	}
	query, err := catalog.Transform(features)
	if err != nil {
		return nil, fmt.Errorf("service: applying transform: %w", err)
	}

	k := min(MaxNeighbors, catalog.Size()-1) + 1
	hits, err := catalog.Neighbors(query, k)
	if err != nil {
		return nil, fmt.Errorf("service: neighbour query: %w", err)
	}

	out := make([]int, 0, min(count, len(hits)))
	for _, hit := range hits {
		if len(out) == count {
			break
		}
		// Duplicated feature vectors can rank another row ahead of the
		// selection, so the self-match is removed by identity.
		if hit.Index == selected {
			continue
		}
		out = append(out, hit.Index)
	}
	return out, nil
}
