package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
)

type savedTrackResponse struct {
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	PlayURL string `json:"play_url"`
}

type savedListResponse struct {
	Tracks []savedTrackResponse `json:"tracks"`
}

type removeSavedRequest struct {
	Name   string `json:"name"`
	Artist string `json:"artist"`
}

func toSavedResponse(t domain.Track) savedTrackResponse {
	return savedTrackResponse{Name: t.Name, Artist: t.Artist, PlayURL: t.SearchURL()}
}

// ListSaved handles GET /saved
func (h *Handler) ListSaved(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.svc.SavedTracks(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	out := make([]savedTrackResponse, len(tracks))
	for i, t := range tracks {
		out[i] = toSavedResponse(t)
	}
	writeJSON(w, http.StatusOK, savedListResponse{Tracks: out})
}

// RemoveSaved handles DELETE /saved. Every entry with the given name and
// artist is removed; removing a track that is not saved is not an error.
func (h *Handler) RemoveSaved(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeErrorWithCode(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json", errCodeUnsupportedType)
		return
	}
	var req removeSavedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorWithCode(w, http.StatusBadRequest, "Invalid request body", errCodeBadRequest)
		return
	}
	if req.Name == "" || req.Artist == "" {
		writeErrorWithCode(w, http.StatusBadRequest, "name and artist are required", errCodeBadRequest)
		return
	}

	if err := h.svc.RemoveSaved(r.Context(), domain.Track{Name: req.Name, Artist: req.Artist}); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
