package domain

import (
	"reflect"
	"testing"
)

func TestSession_Initialize(t *testing.T) {
	tests := []struct {
		name    string
		initial Session
		want    Session
	}{
		{
			name:    "fills every absent field",
			initial: Session{},
			want:    DefaultSession(),
		},
		{
			name: "keeps present fields",
			initial: Session{
				SearchQuery: "Circles",
				Count:       25,
				Mode:        Disambiguating{Candidates: []Candidate{{Index: 3, TrackID: "abc"}}},
			},
			want: Session{
				SearchQuery: "Circles",
				Count:       25,
				Mode:        Disambiguating{Candidates: []Candidate{{Index: 3, TrackID: "abc"}}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.initial
			once.Initialize(DefaultSession())
			if !reflect.DeepEqual(once, tt.want) {
				t.Fatalf("after one Initialize: got %+v, want %+v", once, tt.want)
			}

			twice := once
			twice.Initialize(DefaultSession())
			if !reflect.DeepEqual(twice, once) {
				t.Fatalf("Initialize is not idempotent: got %+v, want %+v", twice, once)
			}
		})
	}
}

func TestSession_ResetExcept(t *testing.T) {
	s := Session{
		ID:          "s1",
		SearchQuery: "Circles",
		Count:       12,
		Mode:        Recommending{Selected: 4, Recommendations: []int{1, 2}, Playback: "abc123"},
		Notice:      &Notice{Level: NoticeWarning, Message: "stale"},
	}

	s.ResetExcept(FieldSearchQuery)

	if s.SearchQuery != "Circles" {
		t.Errorf("SearchQuery: got %q, want %q", s.SearchQuery, "Circles")
	}
	if s.ID != "s1" {
		t.Errorf("ID: got %q, want %q", s.ID, "s1")
	}
	def := DefaultSession()
	if s.Count != def.Count {
		t.Errorf("Count: got %d, want %d", s.Count, def.Count)
	}
	if _, ok := s.Mode.(Idle); !ok {
		t.Errorf("Mode: got %T, want Idle", s.Mode)
	}
	if s.Notice != nil {
		t.Errorf("Notice: got %+v, want nil", s.Notice)
	}
}

func TestSession_ResetExceptNothing(t *testing.T) {
	s := Session{SearchQuery: "Circles", Count: 7, Mode: Disambiguating{}}
	s.ResetExcept()

	want := DefaultSession()
	if !reflect.DeepEqual(s, want) {
		t.Fatalf("got %+v, want %+v", s, want)
	}
}

func TestClampCount(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, MinRecommendations},
		{5, 5},
		{10, 10},
		{30, 30},
		{31, MaxRecommendations},
	}
	for _, tt := range tests {
		if got := ClampCount(tt.in); got != tt.want {
			t.Errorf("ClampCount(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFeatureSchema_Validate(t *testing.T) {
	schema := FeatureSchema{FeatureGroupAll: {"energy", "valence"}}

	if err := schema.Validate([]string{"energy", "valence"}); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := schema.Validate([]string{"valence", "energy"}); err == nil {
		t.Fatal("expected error for reordered columns")
	}
	if err := schema.Validate([]string{"energy"}); err == nil {
		t.Fatal("expected error for missing column")
	}
	if err := (FeatureSchema{}).Validate([]string{"energy"}); err == nil {
		t.Fatal("expected error for empty schema")
	}
}

func TestTrackRecord_FeatureVector(t *testing.T) {
	rec := TrackRecord{Index: 1, Features: map[string]float64{"energy": 0.5, "tempo": 120}}

	got, err := rec.FeatureVector([]string{"tempo", "energy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{120, 0.5}) {
		t.Fatalf("got %v", got)
	}

	if _, err := rec.FeatureVector([]string{"loudness"}); err == nil {
		t.Fatal("expected error for missing feature")
	}
}

func TestTrackMetadata_Label(t *testing.T) {
	m := TrackMetadata{Name: "Circles", Artists: "Post Malone", ReleaseYear: "2019"}
	if got, want := m.Label(), "Circles - Post Malone (2019)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
