// Package web serves the MelodiMatch pages.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
	"github.com/ewilliams-labs/melodimatch/internal/core/services"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
	"github.com/ewilliams-labs/melodimatch/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Handler manages the HTTP interface for our application.
type Handler struct {
	controller *services.Controller
	renderer   *services.Renderer
	sessions   *session.Store
	loader     ports.CatalogLoader
	metrics    *metrics.Metrics
	router     *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(controller *services.Controller, renderer *services.Renderer, sessions *session.Store, loader ports.CatalogLoader, m *metrics.Metrics) *Handler {
	h := &Handler{
		controller: controller,
		renderer:   renderer,
		sessions:   sessions,
		loader:     loader,
		metrics:    m,
		router:     http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("GET /{$}", h.Index)
	h.router.HandleFunc("POST /search", h.Search)
	h.router.HandleFunc("POST /select", h.Select)
	h.router.HandleFunc("POST /play", h.Play)
	h.router.HandleFunc("POST /player/close", h.ClosePlayer)

	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.Handle("GET /metrics", h.metrics.Handler())
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Tracks  int    `json:"tracks,omitempty"`
}

// HealthCheck reports liveness and whether the catalog is loadable.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	cat, err := h.loader.Load(r.Context())
	h.metrics.CatalogLoad(err)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "MelodiMatch is live 🎶", Tracks: cat.Size()})
}
