package api

import (
	"encoding/json"
	"net/http"
)

// Error represents a structured error response. Every error carries the
// success flag the deployed clients key on.
type Error struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeValidation = "validation_error"
	ErrCodeNotFound   = "not_found"
	ErrCodeUpload     = "upload_error"
	ErrCodeInternal   = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Success: false,
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeValidationError writes a 400 response for malformed or incomplete input.
func writeValidationError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeValidation, message)
}

// writeNotFound writes a 404 response for an unknown device, request, or file.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUploadError writes a 400 response for a rejected upload (size, type).
func writeUploadError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeUpload, message)
}

// writeInternalError writes a 500 response. The message is echoed so the
// parental dashboard can surface it.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}
