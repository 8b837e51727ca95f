package rest

import "net/http"

// GetTrackInfo handles GET /tracks/{id}/info
func (h *Handler) GetTrackInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.svc.TrackInfo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
