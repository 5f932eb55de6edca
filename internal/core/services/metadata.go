package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
)

// DefaultMetadataCacheSize bounds the number of memoized batches.
const DefaultMetadataCacheSize = 256

// fetchTimeout bounds one shared provider call. It is detached from the
// caller so a disconnecting client does not fail the requests collapsed onto it.
const fetchTimeout = 30 * time.Second

// MetadataGateway memoizes metadata lookups by the exact input batch.
// It never fails: lookups that could not be resolved come back as nil entries.
type MetadataGateway struct {
	provider ports.MetadataProvider
	metrics  *metrics.Metrics
	capacity int

	mu    sync.Mutex
	cache map[string][]*domain.TrackMetadata
	order []string // oldest first

	group singleflight.Group
}

// compile-time interface assertion
var _ ports.MetadataFetcher = (*MetadataGateway)(nil)

// NewMetadataGateway constructs a MetadataGateway. capacity < 1 uses DefaultMetadataCacheSize.
func NewMetadataGateway(provider ports.MetadataProvider, m *metrics.Metrics, capacity int) *MetadataGateway {
	if capacity < 1 {
		capacity = DefaultMetadataCacheSize
	}
	return &MetadataGateway{
		provider: provider,
		metrics:  m,
		capacity: capacity,
		cache:    make(map[string][]*domain.TrackMetadata),
	}
}

// Fetch returns one entry per id, in input order.
func (g *MetadataGateway) Fetch(ctx context.Context, ids []string) []*domain.TrackMetadata {
	if len(ids) == 0 {
		return []*domain.TrackMetadata{}
	}
	key := batchKey(ids)

	if cached, ok := g.lookup(key); ok {
		g.metrics.MetadataFetch("hit", countAbsent(cached))
		return cached
	}

	v, _, _ := g.group.Do(key, func() (any, error) {
		if cached, ok := g.lookup(key); ok {
			return cached, nil
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		result, err := g.provider.GetTracks(fctx, ids)
		if len(result) != len(ids) {
			if err == nil {
				log.Printf("WARN metadata: provider returned %d records for %d ids", len(result), len(ids))
			}
			result = make([]*domain.TrackMetadata, len(ids))
		}
		if err != nil {
			log.Printf("WARN metadata: batch of %d ids failed: %v", len(ids), err)
			return result, nil
		}

		g.store(key, result)
		return result, nil
	})

	result := clone(v.([]*domain.TrackMetadata))
	g.metrics.MetadataFetch("miss", countAbsent(result))
	return result
}

func (g *MetadataGateway) lookup(key string) ([]*domain.TrackMetadata, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cached, ok := g.cache[key]
	if !ok {
		return nil, false
	}
	return clone(cached), true
}

func (g *MetadataGateway) store(key string, result []*domain.TrackMetadata) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.cache[key]; ok {
		return
	}
	for len(g.order) >= g.capacity {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.cache, oldest)
	}
	g.cache[key] = clone(result)
	g.order = append(g.order, key)
}

// batchKey joins ids with a unit separator, which never appears in a track id.
func batchKey(ids []string) string {
	return strings.Join(ids, "\x1f")
}

func clone(in []*domain.TrackMetadata) []*domain.TrackMetadata {
	out := make([]*domain.TrackMetadata, len(in))
	copy(out, in)
	return out
}

func countAbsent(records []*domain.TrackMetadata) int {
	n := 0
	for _, r := range records {
		if r == nil {
			n++
		}
	}
	return n
}
