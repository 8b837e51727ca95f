package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	svc    *services.Orchestrator // Dependency on the Core Service
	router *http.ServeMux         // Standard library router
	logger *zap.Logger
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(svc *services.Orchestrator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		svc:    svc,
		router: http.NewServeMux(),
		logger: logger,
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	h.router.HandleFunc("GET /health", h.HealthCheck)
	h.router.HandleFunc("GET /moods", h.ListMoods)

	// Playback sessions
	h.router.HandleFunc("POST /sessions", h.StartSession)
	h.router.HandleFunc("GET /sessions/{id}", h.GetSession)
	h.router.HandleFunc("POST /sessions/{id}/next", h.NextTrack)
	h.router.HandleFunc("POST /sessions/{id}/previous", h.PreviousTrack)
	h.router.HandleFunc("POST /sessions/{id}/save", h.SaveTrack)
	h.router.HandleFunc("POST /sessions/{id}/motion", h.FeedMotion)
	h.router.HandleFunc("DELETE /sessions/{id}", h.EndSession)

	// Saved tracks
	h.router.HandleFunc("GET /saved", h.ListSaved)
	h.router.HandleFunc("DELETE /saved", h.RemoveSaved)

	h.router.HandleFunc("GET /tracks/{id}/info", h.GetTrackInfo)
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "moodmusic is live 🎶"})
}

type moodsResponse struct {
	Moods []domain.Mood `json:"moods"`
}

// ListMoods handles GET /moods
func (h *Handler) ListMoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, moodsResponse{Moods: domain.Moods()})
}
