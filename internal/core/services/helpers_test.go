package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/melodimatch/internal/catalog"
	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
)

// --- Mocks ---

type stubLoader struct {
	cat ports.Catalog
	err error
}

func (l stubLoader) Load(ctx context.Context) (ports.Catalog, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.cat, nil
}

type stubProvider struct {
	mu      sync.Mutex
	calls   int
	missing map[string]bool
	err     error
	gate    chan struct{}

	canceled int // calls that saw a done context
}

func (p *stubProvider) GetTracks(ctx context.Context, ids []string) ([]*domain.TrackMetadata, error) {
	if p.gate != nil {
		<-p.gate
	}
	p.mu.Lock()
	p.calls++
	if ctx.Err() != nil {
		p.canceled++
	}
	p.mu.Unlock()

	out := make([]*domain.TrackMetadata, len(ids))
	if p.err != nil {
		return out, p.err
	}
	for i, id := range ids {
		if p.missing[id] {
			continue
		}
		out[i] = &domain.TrackMetadata{ID: id, Name: "Song " + id, Artists: "Artist", ReleaseYear: "2019"}
	}
	return out, nil
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubPrefetcher struct {
	batches [][]string
}

func (p *stubPrefetcher) Submit(ids []string) {
	p.batches = append(p.batches, ids)
}

// --- Fixtures ---

var fixtureColumns = []string{"energy", "valence"}

func track(index int, id, name string, energy, valence float64) domain.TrackRecord {
	return domain.TrackRecord{
		Index:    index,
		TrackID:  id,
		Name:     name,
		Features: map[string]float64{"energy": energy, "valence": valence},
	}
}

func buildCatalog(t *testing.T, tracks []domain.TrackRecord) *catalog.Store {
	t.Helper()

	idx := &catalog.Index{Version: catalog.CurrentIndexVersion, Metric: catalog.MetricEuclidean, Dimensions: len(fixtureColumns)}
	for _, tr := range tracks {
		vec, err := tr.FeatureVector(fixtureColumns)
		require.NoError(t, err)
		idx.Points = append(idx.Points, vec)
		idx.Rows = append(idx.Rows, tr.Index)
	}
	transform := &catalog.Transform{Columns: fixtureColumns, Center: []float64{0, 0}, Scale: []float64{1, 1}}

	store, err := catalog.NewStore(tracks, domain.FeatureSchema{domain.FeatureGroupAll: fixtureColumns}, transform, idx)
	require.NoError(t, err)
	return store
}

// gridCatalog has n rows spread over the feature plane, one of them titled "Circles".
func gridCatalog(t *testing.T, n int) *catalog.Store {
	t.Helper()
	tracks := make([]domain.TrackRecord, n)
	for i := range tracks {
		name := fmt.Sprintf("Track %d", i)
		if i == 42 {
			name = "Circles"
		}
		tracks[i] = track(i, fmt.Sprintf("id%d", i), name, float64(i%25)/25, float64(i/25)/20)
	}
	return buildCatalog(t, tracks)
}

func itoa(i int) string {
	return fmt.Sprintf("%d", i)
}
