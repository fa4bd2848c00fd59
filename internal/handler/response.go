package handler

// RESPONSE HELPERS:
// These functions standardise how we send JSON responses and errors.
//
// CONSISTENT ERROR FORMAT:
// Every error response from our API has the same shape:
//   {"error": "already_checked_in", "message": "already checked in today"}
//
// "error" is the most specific machine-readable code available: the
// AppError's Code when it has one, otherwise the error category.

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/MehvishSheikh/attendance-webapp/internal/apperror"
)

// maxBodyBytes caps request bodies. Every payload in this API is a handful
// of short strings.
const maxBodyBytes = 1 << 20

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`           // Machine-readable code (e.g. "email_taken")
	Message string `json:"message"`         // Human-readable description
	Field   string `json:"field,omitempty"` // Offending request field, for validation errors
}

// MessageResponse is the body of endpoints that only acknowledge.
type MessageResponse struct {
	Message string `json:"message"`
}

// writeJSON sends a JSON response with the given status code.
//
// HEADER ORDER MATTERS:
// Headers and status must be set BEFORE the body is written. Once Encode
// writes, the headers are sent and later changes are silently ignored.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusOf maps a domain error to its HTTP status and category.
//
// The service layer returns apperror sentinels wrapped in AppError; it knows
// nothing about HTTP. errors.Is walks the chain to find the sentinel.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to the appropriate HTTP status code and sends it.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, category := statusOf(err)
		if status != http.StatusInternalServerError {
			code := appErr.Code
			if code == "" {
				code = category
			}
			writeJSON(w, status, ErrorResponse{
				Error:   code,
				Message: appErr.Message,
				Field:   appErr.Field,
			})
			return
		}
	}

	// Unknown error: log the detail, return a generic 500.
	// The raw message might contain SQL, file paths or other internals.
	slog.Error("request failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// and is not an error, so endpoints whose fields are all optional accept it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}
