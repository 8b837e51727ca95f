package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
	"github.com/ewilliams-labs/moodmusic/internal/motion"
)

type startSessionRequest struct {
	Mood string `json:"mood"`
}

type sessionResponse struct {
	ID      string             `json:"id"`
	Mood    domain.Mood        `json:"mood"`
	Tracks  []domain.Track     `json:"tracks"`
	Index   int                `json:"index"`
	Current domain.Track       `json:"current"`
	Status  domain.FetchStatus `json:"status"`
	Error   string             `json:"error,omitempty"`
	PlayURL string             `json:"play_url"`
}

func toSessionResponse(id string, snap services.Snapshot) sessionResponse {
	tracks := snap.Tracks
	if tracks == nil {
		tracks = []domain.Track{}
	}
	resp := sessionResponse{
		ID:      id,
		Mood:    snap.Mood,
		Tracks:  tracks,
		Index:   snap.Index,
		Current: snap.Current,
		Status:  snap.Status,
		Error:   snap.Err,
	}
	if len(snap.Tracks) > 0 {
		resp.PlayURL = snap.Current.SearchURL()
	}
	return resp
}

// StartSession handles POST /sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errCodeUnsupportedType)
		return
	}
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeBadRequest)
		return
	}

	id, snap, err := h.svc.StartSession(req.Mood)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Location", "/sessions/"+id)
	writeJSON(w, http.StatusCreated, toSessionResponse(id, snap))
}

// GetSession handles GET /sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.svc.Session(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(id, snap))
}

// NextTrack handles POST /sessions/{id}/next
func (h *Handler) NextTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.svc.Advance(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(id, snap))
}

// PreviousTrack handles POST /sessions/{id}/previous
func (h *Handler) PreviousTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, err := h.svc.Retreat(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(id, snap))
}

// SaveTrack handles POST /sessions/{id}/save
func (h *Handler) SaveTrack(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Save(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSavedResponse(t))
}

type motionRequest struct {
	Samples []motion.Sample `json:"samples"`
}

type motionResponse struct {
	Accepted         int   `json:"accepted"`
	SampleIntervalMs int64 `json:"sample_interval_ms"`
}

// FeedMotion handles POST /sessions/{id}/motion. Clients post batches of
// accelerometer readings taken at sample_interval_ms.
func (h *Handler) FeedMotion(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errCodeUnsupportedType)
		return
	}
	var req motionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeBadRequest)
		return
	}

	accepted, err := h.svc.FeedMotion(r.PathValue("id"), req.Samples)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, motionResponse{
		Accepted:         accepted,
		SampleIntervalMs: h.svc.ShakeConfig().SampleInterval.Milliseconds(),
	})
}

// EndSession handles DELETE /sessions/{id}
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
