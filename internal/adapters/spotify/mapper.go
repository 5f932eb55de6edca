package spotify

import (
	"strings"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// mapTrackToDomain converts a raw Spotify track to a display record.
func mapTrackToDomain(st spotifyTrack) *domain.TrackMetadata {
	// 1. Flatten Artists (List -> String)
	artistNames := make([]string, 0, len(st.Artists))
	for _, a := range st.Artists {
		artistNames = append(artistNames, a.Name)
	}

	// 2. Extract Album Cover
	coverURL := ""
	if len(st.Album.Images) > 0 {
		coverURL = st.Album.Images[0].URL
	}

	// 3. Release year is the leading part of "2019", "2019-08" or "2019-08-30"
	year := st.Album.ReleaseDate
	if len(year) > 4 {
		year = year[:4]
	}

	return &domain.TrackMetadata{
		ID:          st.ID,
		Name:        st.Name,
		Artists:     strings.Join(artistNames, ", "),
		Album:       st.Album.Name,
		ReleaseYear: year,
		CoverURL:    coverURL,
	}
}
