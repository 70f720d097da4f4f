// Package handler translates HTTP requests into service calls and service
// results into JSON responses.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/wellness-directory/internal/apperror"
)

// maxBodyBytes caps request bodies; the largest legitimate payload is a
// submission with a few kilobytes of text.
const maxBodyBytes = 64 << 10

// ErrorResponse is the JSON body of every error. Errors lists field-level
// messages for validation failures and is omitted otherwise.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps domain errors onto status codes. Anything that is not an
// *apperror.AppError is reported as a generic 500 so storage details never
// leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	status := http.StatusInternalServerError
	errorType := "internal_error"
	message := appErr.Message
	var details []string

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status = http.StatusBadRequest
		errorType = "validation_error"
		message = "Validation failed"
		details = appErr.Details
		if len(details) == 0 {
			details = []string{appErr.Message}
		}
	case errors.Is(err, apperror.ErrNotFound):
		status = http.StatusNotFound
		errorType = "not_found"
	case errors.Is(err, apperror.ErrUnauthorized):
		status = http.StatusUnauthorized
		errorType = "unauthorized"
	case errors.Is(err, apperror.ErrConflict):
		status = http.StatusConflict
		errorType = "conflict"
	case errors.Is(err, apperror.ErrRateLimited):
		status = http.StatusTooManyRequests
		errorType = "rate_limited"
	case errors.Is(err, apperror.ErrMisconfigured):
		errorType = "misconfigured"
	}

	writeJSON(w, status, ErrorResponse{
		Error:   errorType,
		Message: message,
		Errors:  details,
	})
}

// logRejectedBody records a body that failed to decode. Clients get the
// same validation error either way; the log line is for debugging forms.
func logRejectedBody(logger *slog.Logger, r *http.Request, err error) {
	logger.Debug("rejected request body",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
}

// decodeJSON reads a single JSON object from the body into dst. Malformed
// input comes back as a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("body", fmt.Sprintf("Request body must be %d bytes or less", maxBodyBytes))
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "Request body is required")
		default:
			return apperror.ValidationFailed("body", "Invalid JSON body")
		}
	}
	if dec.More() {
		return apperror.ValidationFailed("body", "Request body must contain a single JSON object")
	}
	return nil
}
