package services

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
)

// Messages shown when every record of a batch is absent.
const (
	CandidatesUnavailable      = "Could not fetch song details for any of the matching tracks. Please try again later."
	RecommendationsUnavailable = "Could not fetch song details for any of the recommended tracks. Please try again later."
)

// LoadFailure describes a catalog that could not be loaded.
type LoadFailure struct {
	Message     string
	Remediation string
}

// Option is one entry of the disambiguation list.
type Option struct {
	Index int
	Label string
}

// Card is a recommended track with its display metadata.
type Card struct {
	Index    int
	Metadata domain.TrackMetadata
	Playing  bool
}

// View is everything the page needs to render one session.
type View struct {
	SearchQuery string
	Count       int
	MinCount    int
	MaxCount    int
	Mode        string
	Notice      *domain.Notice
	Fatal       *LoadFailure

	Options []Option

	Selected        *domain.TrackMetadata
	SelectedPlaying bool
	Recommendations []Card
	Playback        string // embed URL, empty when the player is closed

	MetadataError string
}

// Renderer resolves a session into a View. Rendering never mutates the session.
type Renderer struct {
	loader   ports.CatalogLoader
	metadata ports.MetadataFetcher
}

// NewRenderer constructs a Renderer.
func NewRenderer(loader ports.CatalogLoader, metadata ports.MetadataFetcher) *Renderer {
	return &Renderer{loader: loader, metadata: metadata}
}

// Render builds the view of s.
func (r *Renderer) Render(ctx context.Context, s domain.Session) View {
	s.Initialize(domain.DefaultSession())

	v := View{
		SearchQuery: s.SearchQuery,
		Count:       s.Count,
		MinCount:    domain.MinRecommendations,
		MaxCount:    domain.MaxRecommendations,
		Mode:        domain.ModeName(s.Mode),
		Notice:      s.Notice,
	}

	cat, err := r.loader.Load(ctx)
	if err != nil {
		v.Fatal = describeLoadFailure(err)
		return v
	}

	switch mode := s.Mode.(type) {
	case domain.Idle:
	case domain.Disambiguating:
		r.renderOptions(ctx, &v, mode)
	case domain.Recommending:
		r.renderRecommendations(ctx, &v, cat, mode)
	}
	return v
}

func (r *Renderer) renderOptions(ctx context.Context, v *View, mode domain.Disambiguating) {
	ids := make([]string, len(mode.Candidates))
	for i, c := range mode.Candidates {
		ids[i] = c.TrackID
	}
	records := r.metadata.Fetch(ctx, ids)

	for i, md := range records {
		if md == nil {
			continue
		}
		v.Options = append(v.Options, Option{Index: mode.Candidates[i].Index, Label: md.Label()})
	}
	if len(ids) > 0 && len(v.Options) == 0 {
		v.MetadataError = CandidatesUnavailable
	}
}

func (r *Renderer) renderRecommendations(ctx context.Context, v *View, cat ports.Catalog, mode domain.Recommending) {
	if t, ok := cat.Track(mode.Selected); ok {
		if md := r.metadata.Fetch(ctx, []string{t.TrackID})[0]; md != nil {
			v.Selected = md
			v.SelectedPlaying = mode.Playback != "" && md.ID == mode.Playback
		}
	}

	indices := make([]int, 0, len(mode.Recommendations))
	ids := make([]string, 0, len(mode.Recommendations))
	for _, idx := range mode.Recommendations {
		t, ok := cat.Track(idx)
		if !ok {
			continue
		}
		indices = append(indices, idx)
		ids = append(ids, t.TrackID)
	}
	records := r.metadata.Fetch(ctx, ids)

	for i, md := range records {
		if md == nil {
			continue
		}
		v.Recommendations = append(v.Recommendations, Card{
			Index:    indices[i],
			Metadata: *md,
			Playing:  mode.Playback != "" && md.ID == mode.Playback,
		})
	}
	if len(ids) > 0 && len(v.Recommendations) == 0 {
		v.MetadataError = RecommendationsUnavailable
	}

	if mode.Playback != "" {
		v.Playback = domain.EmbedURL(mode.Playback)
	}
}

// remediable is implemented by load errors that know how to be fixed.
type remediable interface {
	error
	Remediation() string
}

func describeLoadFailure(err error) *LoadFailure {
	var r remediable
	if errors.As(err, &r) {
		return &LoadFailure{Message: r.Error(), Remediation: r.Remediation()}
	}
	return &LoadFailure{
		Message:     "Error loading the recommendation model: " + err.Error(),
		Remediation: "Regenerate the model artifacts with the model build pipeline, then reload this page.",
	}
}
