package response

import (
	"encoding/json"
	"net/http"

	"github.com/sentinelworks/gatepass/pkg/logger"
)

// ErrorResponse represents a structured JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Common error codes
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeRateLimit       = "RATE_LIMIT_EXCEEDED"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeDemoRestricted  = "DEMO_RESTRICTED"
	CodeDemoLimit       = "DEMO_LIMIT_REACHED"
	CodePassExpired     = "PASS_EXPIRED"
	CodeEmailExists     = "EMAIL_EXISTS"
)

// WriteJSON writes an arbitrary JSON payload
func WriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// WriteError writes a structured JSON error response
func WriteError(w http.ResponseWriter, statusCode int, message string, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// Convenience functions for common errors
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message, CodeInvalidInput)
}

func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message, CodeUnauthorized)
}

func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeForbidden)
}

func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message, CodeNotFound)
}

func Conflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message, CodeConflict)
}

func RateLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message, CodeRateLimit)
}

func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message, CodeInternalError)
}

// DemoRestricted denies a blocked demo-mode action with a message that
// names the restriction so the UI needs no extra explanation.
func DemoRestricted(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeDemoRestricted)
}

// DemoLimit is distinct from DemoRestricted so the client can hint that
// relogging resets the quota.
func DemoLimit(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message, CodeDemoLimit)
}
