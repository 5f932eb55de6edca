// Package catalog holds the loaded recommendation artifacts: the track
// catalog, the fitted feature transform, the feature schema and the
// nearest-neighbour index. A Store is immutable once built and safe for
// concurrent readers.
package catalog

import (
	"fmt"
	"sort"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
)

// Store is a loaded artifact bundle.
type Store struct {
	tracks    []domain.TrackRecord
	positions map[int]int      // internal index -> position in tracks
	byTitle   map[string][]int // lowercased title -> positions
	titles    []titleEntry     // distinct titles for suggestions
	schema    domain.FeatureSchema
	transform *Transform
	index     *Index
}

// compile-time interface assertion
var _ ports.Catalog = (*Store)(nil)

// NewStore validates the artifacts against each other and builds lookup tables.
// Rows without a track id are dropped.
func NewStore(tracks []domain.TrackRecord, schema domain.FeatureSchema, transform *Transform, index *Index) (*Store, error) {
	if err := schema.Validate(transform.Columns); err != nil {
		return nil, err
	}
	if err := index.validate(); err != nil {
		return nil, err
	}
	if index.Dimensions != len(transform.Columns) {
		return nil, fmt.Errorf("%w: index has %d dims, transform outputs %d", ErrDimensionMismatch, index.Dimensions, len(transform.Columns))
	}

	kept := make([]domain.TrackRecord, 0, len(tracks))
	for _, t := range tracks {
		if t.HasTrackID() {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Index < kept[j].Index })

	s := &Store{
		tracks:    kept,
		positions: make(map[int]int, len(kept)),
		byTitle:   make(map[string][]int),
		schema:    schema,
		transform: transform,
		index:     index,
	}

	seen := make(map[string]struct{})
	for pos, t := range kept {
		if _, dup := s.positions[t.Index]; dup {
			return nil, fmt.Errorf("catalog: duplicate internal index %d", t.Index)
		}
		s.positions[t.Index] = pos
		key := titleKey(t.Name)
		s.byTitle[key] = append(s.byTitle[key], pos)
		if _, ok := seen[key]; !ok {
			seen[key] = struct{}{}
			s.titles = append(s.titles, titleEntry{display: t.Name, normalized: normalizeTitle(t.Name)})
		}
	}

	return s, nil
}

// Size returns the number of rows with a track id.
func (s *Store) Size() int {
	return len(s.tracks)
}

// Track returns the row with the given internal index.
func (s *Store) Track(index int) (domain.TrackRecord, bool) {
	pos, ok := s.positions[index]
	if !ok {
		return domain.TrackRecord{}, false
	}
	return s.tracks[pos], true
}

// MatchTitle returns rows whose name equals title case-insensitively, in catalog order.
func (s *Store) MatchTitle(title string) []domain.TrackRecord {
	positions := s.byTitle[titleKey(title)]
	out := make([]domain.TrackRecord, 0, len(positions))
	for _, pos := range positions {
		out = append(out, s.tracks[pos])
	}
	return out
}

// SuggestTitles returns catalog titles that are close to title.
func (s *Store) SuggestTitles(title string, limit int) []string {
	return suggest(s.titles, title, limit)
}

// Schema returns the feature schema.
func (s *Store) Schema() domain.FeatureSchema {
	return s.schema
}

// Transform maps a raw feature vector (schema "all" order) into model space.
func (s *Store) Transform(features []float64) ([]float64, error) {
	return s.transform.Apply(features)
}

// Neighbors queries the index for the k closest catalog rows to a
// model-space vector. Index points whose row was dropped at load time are
// skipped, and the query widens to compensate.
func (s *Store) Neighbors(query []float64, k int) ([]domain.Neighbor, error) {
	dropped := max(s.index.Len()-len(s.tracks), 0)
	hits, err := s.index.KNeighbors(query, k+dropped)
	if err != nil {
		return nil, err
	}

	out := hits[:0]
	for _, h := range hits {
		if len(out) == k {
			break
		}
		if _, ok := s.positions[h.Index]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}
