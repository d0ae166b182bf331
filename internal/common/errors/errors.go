// Package errors provides standardized error handling for the agent pipeline.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// An adapter's Fetch raised; the router answers with an error envelope
	// immediately, no retry and no fallback to the next adapter.
	ErrCodeAdapterFailed ErrorCode = "ADAPTER_FAILED"

	// Network/timeout failure inside a fetch function. Recovered locally
	// into a *_error typed payload, never raised further.
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"

	// Malformed caller input; the only category surfaced as an HTTP 4xx.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Security precheck rejected the message; terminal, surfaced as a
	// blocked-typed response rather than an HTTP error.
	ErrCodeSecurityBlocked ErrorCode = "SECURITY_BLOCKED"

	// Security oracle unreachable; always fail-open, logged only.
	ErrCodeOracleUnavailable ErrorCode = "ORACLE_UNAVAILABLE"

	ErrCodeReportRenderFailed ErrorCode = "REPORT_RENDER_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// HTTPStatus maps an error code to the HTTP status the gateway answers with.
// Only validation failures are the caller's fault; everything else is
// recovered into a structured body.
func (e *StandardError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeValidationFailed:
		return 400
	default:
		return 500
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewAdapterFailedError creates a non-retryable adapter contract violation error.
func NewAdapterFailedError(adapter string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAdapterFailed,
		Message:   fmt.Sprintf("%s failed to fetch data", adapter),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamUnavailableError creates a retryable upstream failure error.
func NewUpstreamUnavailableError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   "Upstream data source unavailable",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a non-retryable caller input error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSecurityBlockedError creates a terminal security rejection.
func NewSecurityBlockedError(reason string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSecurityBlocked,
		Message:   "Message blocked by security policy",
		Details:   reason,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleUnavailableError creates a retryable oracle outage error. Callers
// treat this as a signal to proceed without the safety annotation.
func NewOracleUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleUnavailable,
		Message:   "Security oracle unreachable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewReportRenderFailedError creates a non-retryable renderer error.
func NewReportRenderFailedError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeReportRenderFailed,
		Message:   "Report rendering failed",
		Details:   fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
