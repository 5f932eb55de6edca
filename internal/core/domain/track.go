package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownTrack indicates an internal index that is not part of the loaded catalog.
var ErrUnknownTrack = errors.New("domain: unknown track index")

// TrackRecord is one catalog row.
type TrackRecord struct {
	Index    int    // internal index, stable for the lifetime of a loaded catalog
	TrackID  string // external Spotify id, empty when the source row had NULL
	Name     string
	Artist   string             // optional
	Features map[string]float64 // audio features like "energy", "valence", etc.
}

// HasTrackID reports whether the row can be resolved against the metadata service.
func (t TrackRecord) HasTrackID() bool {
	return t.TrackID != ""
}

// FeatureVector returns the row's features in the given column order.
func (t TrackRecord) FeatureVector(columns []string) ([]float64, error) {
	vec := make([]float64, len(columns))
	for i, col := range columns {
		v, ok := t.Features[col]
		if !ok {
			return nil, fmt.Errorf("domain: track %d has no feature %q", t.Index, col)
		}
		vec[i] = v
	}
	return vec, nil
}

// TrackMetadata is the display record returned by the metadata service.
// A nil *TrackMetadata marks a failed lookup.
type TrackMetadata struct {
	ID          string
	Name        string
	Artists     string
	Album       string
	ReleaseYear string
	CoverURL    string
}

// Label is the disambiguation caption for a track.
func (m TrackMetadata) Label() string {
	return fmt.Sprintf("%s - %s (%s)", m.Name, m.Artists, m.ReleaseYear)
}

// EmbedURL returns the address of the playback widget for a track id.
func EmbedURL(trackID string) string {
	return "https://open.spotify.com/embed/track/" + trackID
}

// Neighbor is a single neighbour index hit.
type Neighbor struct {
	Distance float64
	Index    int
}
