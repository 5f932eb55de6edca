package catalog

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

const (
	MetricEuclidean = "euclidean"
	MetricCosine    = "cosine"

	// CurrentIndexVersion is bumped on breaking changes to the gob layout.
	CurrentIndexVersion = 1
)

var (
	ErrUnsupportedVersion = errors.New("catalog: unsupported index version")
	ErrDimensionMismatch  = errors.New("catalog: dimension mismatch")
)

// Index is a fitted brute-force nearest-neighbour index over transformed feature vectors.
type Index struct {
	Version    int
	Metric     string
	Dimensions int
	Points     [][]float64
	Rows       []int // internal catalog index of each point
}

// Len returns the number of indexed points.
func (idx *Index) Len() int {
	return len(idx.Points)
}

// DecodeIndex reads a gob-encoded index and validates its version and shape.
func DecodeIndex(r io.Reader) (*Index, error) {
	var idx Index
	if err := gob.NewDecoder(r).Decode(&idx); err != nil {
		return nil, fmt.Errorf("catalog: decoding index: %w", err)
	}
	if idx.Version != CurrentIndexVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, idx.Version, CurrentIndexVersion)
	}
	if idx.Metric == "" {
		idx.Metric = MetricEuclidean
	}
	if err := idx.validate(); err != nil {
		return nil, err
	}
	return &idx, nil
}

// validate checks the index shape so queries never index past a point.
func (idx *Index) validate() error {
	switch idx.Metric {
	case MetricEuclidean, MetricCosine:
	default:
		return fmt.Errorf("catalog: unknown index metric %q", idx.Metric)
	}
	if len(idx.Points) != len(idx.Rows) {
		return fmt.Errorf("catalog: index has %d points but %d rows", len(idx.Points), len(idx.Rows))
	}
	for i, p := range idx.Points {
		if len(p) != idx.Dimensions {
			return fmt.Errorf("%w: point %d (row %d) has %d dims, index has %d", ErrDimensionMismatch, i, idx.Rows[i], len(p), idx.Dimensions)
		}
	}
	return nil
}

// KNeighbors returns up to k hits ordered by ascending distance.
// Equal distances are ordered by internal index.
func (idx *Index) KNeighbors(query []float64, k int) ([]domain.Neighbor, error) {
	if len(query) != idx.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", ErrDimensionMismatch, len(query), idx.Dimensions)
	}
	if k <= 0 {
		return nil, nil
	}

	hits := make([]domain.Neighbor, len(idx.Points))
	for i, p := range idx.Points {
		hits[i] = domain.Neighbor{Distance: idx.distance(query, p), Index: idx.Rows[i]}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Index < hits[j].Index
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (idx *Index) distance(a, b []float64) float64 {
	if idx.Metric == MetricCosine {
		return cosineDistance(a, b)
	}
	return euclideanDistance(a, b)
}

func euclideanDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// cosineDistance is 1 - cosine similarity; zero vectors are maximally distant.
func cosineDistance(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denominator := math.Sqrt(normA) * math.Sqrt(normB)
	if denominator == 0 {
		return 1
	}
	return 1 - dot/denominator
}
