package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// GetTracks resolves ids in chunks of at most 50. The result is aligned with
// ids; an entry is nil when Spotify did not return the track. A failed chunk
// leaves its entries nil and is reported in the returned error, while other
// chunks are still resolved.
func (c *Client) GetTracks(ctx context.Context, ids []string) ([]*domain.TrackMetadata, error) {
	out := make([]*domain.TrackMetadata, len(ids))
	var failed []error

	for start := 0; start < len(ids); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ids))
		chunk, err := c.getTrackChunk(ctx, ids[start:end])
		if err != nil {
			failed = append(failed, err)
			continue
		}
		copy(out[start:end], chunk)
	}

	if len(failed) > 0 {
		return out, fmt.Errorf("spotify adapter: %d of %d batches failed: %w", len(failed), (len(ids)+maxBatchSize-1)/maxBatchSize, failed[0])
	}
	return out, nil
}

func (c *Client) getTrackChunk(ctx context.Context, ids []string) ([]*domain.TrackMetadata, error) {
	out := make([]*domain.TrackMetadata, len(ids))

	// Spotify rejects the whole request for a malformed id, so blanks are skipped.
	query := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			query = append(query, id)
		}
	}
	if len(query) == 0 {
		return out, nil
	}

	tracksURL, err := url.Parse(fmt.Sprintf("%s/tracks", c.baseURL))
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: invalid tracks url: %w", err)
	}
	q := tracksURL.Query()
	q.Set("ids", strings.Join(query, ","))
	tracksURL.RawQuery = q.Encode()

	resp, err := c.get(ctx, tracksURL.String())
	if err != nil {
		return nil, fmt.Errorf("spotify adapter: tracks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify adapter: tracks status %d", resp.StatusCode)
	}

	var body tracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("spotify adapter: tracks decode error: %w", err)
	}

	// Spotify answers positionally, with null for unknown ids.
	if len(body.Tracks) != len(query) {
		return nil, fmt.Errorf("spotify adapter: asked for %d tracks, got %d", len(query), len(body.Tracks))
	}

	next := 0
	for i, id := range ids {
		if id == "" {
			continue
		}
		tr := body.Tracks[next]
		next++
		if tr == nil {
			log.Printf("WARN spotify adapter: no metadata for track %s", id)
			continue
		}
		out[i] = mapTrackToDomain(*tr)
	}
	return out, nil
}
