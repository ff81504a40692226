// Package models - API response types and error handling.
// Consistent JSON structure across all endpoints, optional fields use
// omitempty, RFC3339 timestamps.
package models

import "time"

// ErrorResponse provides structured error information with debugging context.
type ErrorResponse struct {
	Error     string    `json:"error"`          // Error type (always "error")
	Message   string    `json:"message"`        // Human-readable error description
	Code      string    `json:"code,omitempty"` // Machine-readable error code
	Timestamp time.Time `json:"timestamp"`      // Error occurrence time
}

// Machine-readable error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeInvalidPayload     = "INVALID_PAYLOAD"     // 422: Structural validation failed
	ErrorCodeAdmissionDenied    = "ADMISSION_DENIED"    // 429: Rejected by admission control
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Dependency down
)

// NewErrorResponse creates a standardized error response.
func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

// ComponentHealth describes the health of a single dependency.
type ComponentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthCheckResponse reports overall service health.
type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}
