// Package handler contains the HTTP layer: request parsing, response
// writing, and the mapping from domain errors to status codes. No business
// rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/notekeeper/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
// Every error response has the same shape regardless of status code, so
// clients always know what fields to expect.
type ErrorResponse struct {
	Error   string `json:"error"`   // Machine-readable error type (e.g., "not_found")
	Message string `json:"message"` // Human-readable description
}

// writeJSON sends a JSON response with the given status code.
//
// Headers and status must be set before the body: once Encode writes the
// first byte, the headers are on the wire and changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; logging is all that's left.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code and
// sends it.
//
// The service layer returns apperror values; errors.Is walks the wrapped
// chain to classify them here. Anything unrecognized is a 500 with a generic
// body, since raw error strings can contain SQL fragments or file paths and never
// belong in a response.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError

	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthenticated):
			status = http.StatusUnauthorized
			errorType = "unauthenticated"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
