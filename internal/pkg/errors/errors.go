package errors

import (
	"encoding/json"
	"net/http"
)

type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

const (
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal          = "INTERNAL_ERROR"

	// Webhook processing outcomes.
	ErrCodeWebhookNotFound      = "WEBHOOK_NOT_FOUND"
	ErrCodeWebhookInactive      = "WEBHOOK_INACTIVE"
	ErrCodeNoMappingsConfigured = "NO_MAPPINGS_CONFIGURED"
	ErrCodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	ErrCodeNoAdminUser          = "NO_ADMIN_USER"
	ErrCodeDownstreamWrite      = "DOWNSTREAM_WRITE_FAILED"
)

func WriteError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
