package domain

import "errors"

// ErrInvalidTransition indicates an action that the current mode does not accept.
// The view never offers such actions, so seeing one is a logic error, not user input.
var ErrInvalidTransition = errors.New("domain: invalid session transition")

const (
	MinRecommendations     = 5
	MaxRecommendations     = 30
	DefaultRecommendations = 10
)

// Mode is the display mode of a session: Idle, Disambiguating or Recommending.
type Mode interface {
	modeName() string
}

// Idle is the initial mode: nothing searched or nothing found.
type Idle struct{}

// Disambiguating lists every catalog row whose title matched the search.
type Disambiguating struct {
	Candidates []Candidate
}

// Recommending shows the neighbours of the selected row.
type Recommending struct {
	Selected        int
	Recommendations []int
	Playback        string // external track id of the active player, empty when closed
}

func (Idle) modeName() string           { return "idle" }
func (Disambiguating) modeName() string { return "disambiguating" }
func (Recommending) modeName() string   { return "recommending" }

// ModeName returns a stable lowercase name for logging and metrics.
func ModeName(m Mode) string {
	if m == nil {
		return "none"
	}
	return m.modeName()
}

// Candidate is a catalog row that matched a title search.
type Candidate struct {
	Index   int
	TrackID string
}

// NoticeLevel distinguishes inline messages.
type NoticeLevel string

const (
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is an inline message produced by the transition that set it.
type Notice struct {
	Level       NoticeLevel
	Message     string
	Suggestions []string
}

// Field names a recognized session field.
type Field string

const (
	FieldSearchQuery Field = "search_query"
	FieldCount       Field = "recommendation_count"
	FieldMode        Field = "mode"
	FieldNotice      Field = "notice"
)

// Session is the per-user state. A zero Count or nil Mode means "absent".
type Session struct {
	ID          string
	SearchQuery string
	Count       int
	Mode        Mode
	Notice      *Notice
}

// DefaultSession returns the default value of every recognized field.
func DefaultSession() Session {
	return Session{
		SearchQuery: "",
		Count:       DefaultRecommendations,
		Mode:        Idle{},
		Notice:      nil,
	}
}

// Initialize sets every absent field to its default and never overwrites a present one.
func (s *Session) Initialize(defaults Session) {
	if s.Count == 0 {
		s.Count = defaults.Count
	}
	if s.Mode == nil {
		s.Mode = defaults.Mode
	}
	if s.SearchQuery == "" {
		s.SearchQuery = defaults.SearchQuery
	}
	if s.Notice == nil {
		s.Notice = defaults.Notice
	}
}

// ResetExcept clears every recognized field not listed in keep, then re-initializes defaults.
func (s *Session) ResetExcept(keep ...Field) {
	kept := make(map[Field]struct{}, len(keep))
	for _, f := range keep {
		kept[f] = struct{}{}
	}
	reset := func(f Field, fn func()) {
		if _, ok := kept[f]; !ok {
			fn()
		}
	}

	reset(FieldSearchQuery, func() { s.SearchQuery = "" })
	reset(FieldCount, func() { s.Count = 0 })
	reset(FieldMode, func() { s.Mode = nil })
	reset(FieldNotice, func() { s.Notice = nil })

	s.Initialize(DefaultSession())
}

// ClampCount bounds a requested recommendation count to the slider range.
func ClampCount(n int) int {
	if n < MinRecommendations {
		return MinRecommendations
	}
	if n > MaxRecommendations {
		return MaxRecommendations
	}
	return n
}
