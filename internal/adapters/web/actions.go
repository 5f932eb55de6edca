package web

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// loadFailure matches catalog load errors, which the page renders itself.
type loadFailure interface {
	Remediation() string
}

// Search handles POST /search
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	query := r.PostFormValue("query")
	count := formCount(r)

	h.act(w, r, func(ctx context.Context, s *domain.Session) error {
		return h.controller.SubmitSearch(ctx, s, query, count)
	})
}

// Select handles POST /select
func (h *Handler) Select(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	index, err := strconv.Atoi(r.PostFormValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be an integer")
		return
	}
	count := formCount(r)

	h.act(w, r, func(ctx context.Context, s *domain.Session) error {
		return h.controller.ConfirmSelection(ctx, s, index, count)
	})
}

// Play handles POST /play
func (h *Handler) Play(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	trackID := r.PostFormValue("track_id")

	h.act(w, r, func(ctx context.Context, s *domain.Session) error {
		return h.controller.Play(ctx, s, trackID)
	})
}

// ClosePlayer handles POST /player/close
func (h *Handler) ClosePlayer(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *domain.Session) error {
		return h.controller.ClosePlayer(ctx, s)
	})
}

// act applies one transition and redirects to the page, which re-renders the new state.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, *domain.Session) error) {
	err := h.withSession(w, r, func(s *domain.Session) error {
		err := fn(r.Context(), s)
		var lf loadFailure
		switch {
		case err == nil, errors.Is(err, domain.ErrInvalidTransition), errors.As(err, &lf):
			return err
		default:
			log.Printf("WARN web: %s %s: %v", r.Method, r.URL.Path, err)
			s.Notice = &domain.Notice{Level: domain.NoticeError, Message: "Something went wrong while processing your request: " + err.Error()}
			return nil
		}
	})

	if errors.Is(err, domain.ErrInvalidTransition) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// formCount reads the slider value; a missing or malformed value falls back to the default.
func formCount(r *http.Request) int {
	n, err := strconv.Atoi(r.PostFormValue("count"))
	if err != nil {
		return domain.DefaultRecommendations
	}
	return domain.ClampCount(n)
}
