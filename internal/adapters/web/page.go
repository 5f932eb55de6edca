package web

import (
	"bytes"
	"log"
	"net/http"

	"github.com/ewilliams-labs/melodimatch/internal/core/domain"
	"github.com/ewilliams-labs/melodimatch/internal/core/services"
)

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	var view services.View
	_ = h.withSession(w, r, func(s *domain.Session) error {
		view = h.renderer.Render(r.Context(), *s)
		return nil
	})

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		log.Printf("WARN web: rendering page: %v", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if view.Fatal != nil {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("WARN web: writing page: %v", err)
	}
}
