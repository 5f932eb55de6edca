package web

import (
	"net/http"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
)

// CookieName holds the session id.
const CookieName = "melodimatch_session"

// withSession runs fn against the caller's session and refreshes the cookie.
func (h *Handler) withSession(w http.ResponseWriter, r *http.Request, fn func(*domain.Session) error) error {
	var id string
	if c, err := r.Cookie(CookieName); err == nil {
		id = c.Value
	}

	id, err := h.sessions.With(id, fn)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return err
}
