package ports

import (
	"context"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// MetadataProvider resolves display metadata from the remote service.
// The returned slice has the same length and order as ids; nil marks a
// track the service could not resolve.
type MetadataProvider interface {
	GetTracks(ctx context.Context, ids []string) ([]*domain.TrackMetadata, error)
}

// MetadataFetcher is the memoized, never-failing view over a MetadataProvider.
type MetadataFetcher interface {
	Fetch(ctx context.Context, ids []string) []*domain.TrackMetadata
}
