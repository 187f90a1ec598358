package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/semmidev/keeper/internal/domain"
	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("Unable to encode response: %v", err)
	}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoBackupAvailable):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with {error, detail}. Detail is left out for the
// expected 404 and 409 outcomes.
func writeError(w http.ResponseWriter, log *logger.Logger, message string, err error) {
	status := statusFor(err)

	resp := errorResponse{Error: message}
	switch status {
	case http.StatusNotFound:
		resp.Error = "No backup available"
	case http.StatusConflict:
		resp.Error = "A backup or restore is already in progress"
	default:
		resp.Detail = domain.ErrorDetail(err)
	}

	writeJSON(w, log, status, resp)
}
