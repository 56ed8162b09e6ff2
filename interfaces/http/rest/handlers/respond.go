// Package handlers implements the REST trigger and read surface of the
// analytics engine.
package handlers

import (
	"encoding/json"
	"net/http"

	pkgerrors "lorekeeper-backend/pkg/errors"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps application error types onto HTTP status codes. Internal
// detail stays in the log; the client sees only the message.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case pkgerrors.IsValidation(err):
		status = http.StatusBadRequest
		message = err.Error()
	case pkgerrors.IsNotFound(err):
		status = http.StatusNotFound
		message = err.Error()
	case pkgerrors.IsUnavailable(err):
		status = http.StatusServiceUnavailable
		message = "dependency unavailable"
	case pkgerrors.IsUpstream(err):
		status = http.StatusBadGateway
		message = "upstream store error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	respondJSON(w, status, errorResponse{Error: message})
}
