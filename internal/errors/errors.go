package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP context
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	StatusCode int    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// ErrorResponse is the JSON response format for errors
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// WriteJSON writes the error as JSON response
func (e *AppError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: e})
}

// ============================================================
// ERROR CONSTRUCTORS
// ============================================================

// Validation Errors (400)
func BadRequest(message string) *AppError {
	return &AppError{
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func MissingTarget() *AppError {
	return &AppError{
		Code:       "MISSING_TARGET",
		Message:    "Provide either a URL or a file",
		StatusCode: http.StatusBadRequest,
	}
}

func ConflictingTargets() *AppError {
	return &AppError{
		Code:       "CONFLICTING_TARGETS",
		Message:    "Provide either a URL or a file, not both",
		StatusCode: http.StatusBadRequest,
	}
}

// Not Found Errors (404)
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

func EntryNotFound(code string) *AppError {
	return &AppError{
		Code:       "ENTRY_NOT_FOUND",
		Message:    fmt.Sprintf("Short link '%s' not found", code),
		StatusCode: http.StatusNotFound,
	}
}

// Gone (410): the entry existed but its TTL has passed. Distinct from
// 404 so callers can tell "never heard of it" from "too late".
func EntryExpired(code string) *AppError {
	return &AppError{
		Code:       "ENTRY_EXPIRED",
		Message:    fmt.Sprintf("Short link '%s' has expired", code),
		StatusCode: http.StatusGone,
	}
}

// Server Errors (500)
func Internal(details string) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An internal server error occurred",
		Details:    details,
		StatusCode: http.StatusInternalServerError,
	}
}
