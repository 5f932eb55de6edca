package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
)

// SuggestionLimit bounds the "did you mean" titles attached to an empty search.
const SuggestionLimit = 3

// Controller applies user actions to a session.
// Every action loads the catalog through the memoized loader, so a load
// failure is reported on every interaction until the artifacts are fixed.
type Controller struct {
	loader      ports.CatalogLoader
	recommender *Recommender
	prefetch    ports.Prefetcher
	metrics     *metrics.Metrics
}

// NewController constructs a Controller. prefetch may be nil.
func NewController(loader ports.CatalogLoader, recommender *Recommender, prefetch ports.Prefetcher, m *metrics.Metrics) *Controller {
	return &Controller{
		loader:      loader,
		recommender: recommender,
		prefetch:    prefetch,
		metrics:     m,
	}
}

// SubmitSearch resets everything but the search text and looks for exact
// case-insensitive title matches.
func (c *Controller) SubmitSearch(ctx context.Context, s *domain.Session, text string, count int) (err error) {
	defer func() { c.record("search", err) }()

	s.ResetExcept(domain.FieldSearchQuery)
	s.SearchQuery = text
	s.Count = domain.ClampCount(count)

	if strings.TrimSpace(text) == "" {
		return nil
	}

	catalog, err := c.loader.Load(ctx)
	if err != nil {
		return err
	}

	matches := catalog.MatchTitle(text)
	if len(matches) == 0 {
		s.Notice = &domain.Notice{
			Level:       domain.NoticeWarning,
			Message:     fmt.Sprintf("No songs found with the title %q. Please try another song.", text),
			Suggestions: catalog.SuggestTitles(text, SuggestionLimit),
		}
		return nil
	}

	candidates := make([]domain.Candidate, len(matches))
	ids := make([]string, len(matches))
	for i, m := range matches {
		candidates[i] = domain.Candidate{Index: m.Index, TrackID: m.TrackID}
		ids[i] = m.TrackID
	}
	s.Mode = domain.Disambiguating{Candidates: candidates}
	c.warm(ids)
	return nil
}

// ConfirmSelection runs the recommendation query for one of the candidates.
func (c *Controller) ConfirmSelection(ctx context.Context, s *domain.Session, index int, count int) (err error) {
	defer func() { c.record("select", err) }()

	mode, ok := s.Mode.(domain.Disambiguating)
	if !ok {
		return fmt.Errorf("service: confirm selection in mode %s: %w", domain.ModeName(s.Mode), domain.ErrInvalidTransition)
	}
	if !hasCandidate(mode.Candidates, index) {
		return fmt.Errorf("service: %d is not a candidate: %w", index, domain.ErrInvalidTransition)
	}

	catalog, err := c.loader.Load(ctx)
	if err != nil {
		return err
	}

	s.Notice = nil
	s.Count = domain.ClampCount(count)

	recs, err := c.recommender.Recommend(catalog, index, s.Count)
	if err != nil {
		return err
	}

	s.Mode = domain.Recommending{Selected: index, Recommendations: recs}

	ids := make([]string, 0, len(recs))
	for _, idx := range recs {
		if t, ok := catalog.Track(idx); ok {
			ids = append(ids, t.TrackID)
		}
	}
	c.warm(ids)
	return nil
}

// Play sets the active playback target, replacing any previous one.
func (c *Controller) Play(ctx context.Context, s *domain.Session, trackID string) (err error) {
	defer func() { c.record("play", err) }()

	mode, ok := s.Mode.(domain.Recommending)
	if !ok {
		return fmt.Errorf("service: play in mode %s: %w", domain.ModeName(s.Mode), domain.ErrInvalidTransition)
	}
	if trackID == "" {
		return fmt.Errorf("service: play without a track id: %w", domain.ErrInvalidTransition)
	}

	s.Notice = nil
	mode.Playback = trackID
	s.Mode = mode
	return nil
}

// ClosePlayer clears the active playback target.
func (c *Controller) ClosePlayer(ctx context.Context, s *domain.Session) (err error) {
	defer func() { c.record("close", err) }()

	mode, ok := s.Mode.(domain.Recommending)
	if !ok {
		return fmt.Errorf("service: close player in mode %s: %w", domain.ModeName(s.Mode), domain.ErrInvalidTransition)
	}

	s.Notice = nil
	mode.Playback = ""
	s.Mode = mode
	return nil
}

func (c *Controller) warm(ids []string) {
	if c.prefetch == nil || len(ids) == 0 {
		return
	}
	c.prefetch.Submit(ids)
}

func (c *Controller) record(action string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidTransition):
		outcome = "invalid"
		log.Printf("WARN controller: %v", err)
	default:
		outcome = "error"
	}
	c.metrics.Transition(action, outcome)
}

func hasCandidate(candidates []domain.Candidate, index int) bool {
	for _, cand := range candidates {
		if cand.Index == index {
			return true
		}
	}
	return false
}
