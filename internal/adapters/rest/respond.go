package rest

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/moodmusic/internal/adapters/spotify"
	"github.com/ewilliams-labs/moodmusic/internal/core/domain"
	"github.com/ewilliams-labs/moodmusic/internal/core/services"
)

const (
	errCodeUnknownMood     = "UNKNOWN_MOOD"
	errCodeNotFound        = "SESSION_NOT_FOUND"
	errCodeNoTrack         = "NO_TRACK"
	errCodeStorage         = "STORAGE_ERROR"
	errCodeNetwork         = "NETWORK_ERROR"
	errCodeNoToken         = "NO_TOKEN"
	errCodeInvalidRef      = "INVALID_TRACK_REF"
	errCodeNotConfigured   = "NOT_CONFIGURED"
	errCodeInternal        = "INTERNAL"
	errCodeBadRequest      = "BAD_REQUEST"
	errCodeUnsupportedType = "UNSUPPORTED_MEDIA_TYPE"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeErrorWithCode(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeServiceError maps core errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownMood):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeUnknownMood)
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, services.ErrSessionClosed):
		writeErrorWithCode(w, http.StatusNotFound, err.Error(), errCodeNotFound)
	case errors.Is(err, domain.ErrNoTrack):
		writeErrorWithCode(w, http.StatusConflict, err.Error(), errCodeNoTrack)
	case errors.Is(err, spotify.ErrNoToken):
		writeErrorWithCode(w, http.StatusUnauthorized, err.Error(), errCodeNoToken)
	case errors.Is(err, spotify.ErrInvalidRef):
		writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeInvalidRef)
	case errors.Is(err, services.ErrTrackInfoUnavailable):
		writeErrorWithCode(w, http.StatusNotImplemented, err.Error(), errCodeNotConfigured)
	case errors.Is(err, domain.ErrStorage):
		h.logger.Warn("rest: storage failure", zap.Error(err))
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeStorage)
	case errors.Is(err, domain.ErrNetwork):
		writeErrorWithCode(w, http.StatusBadGateway, err.Error(), errCodeNetwork)
	default:
		h.logger.Error("rest: unexpected error", zap.Error(err))
		writeErrorWithCode(w, http.StatusInternalServerError, err.Error(), errCodeInternal)
	}
}

func isJSONContentType(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}
