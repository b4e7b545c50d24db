// Package errors provides standardized error handling for the visualization
// pipeline and its HTTP surface.
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
	// Chat backend collaborator
	ErrCodeChatBackendUnreachable ErrorCode = "CHAT_BACKEND_UNREACHABLE"
	ErrCodeChatBackendRejected    ErrorCode = "CHAT_BACKEND_REJECTED"

	// Analysis pipeline
	ErrCodeGeocodingFailed       ErrorCode = "GEOCODING_FAILED"
	ErrCodeModelTurnFailed       ErrorCode = "MODEL_TURN_FAILED"
	ErrCodeModelProtocolExceeded ErrorCode = "MODEL_PROTOCOL_EXCEEDED"
	ErrCodeModelOutputInvalid    ErrorCode = "MODEL_OUTPUT_INVALID"

	// Session / HTTP layer
	ErrCodeSessionStoreFailed ErrorCode = "SESSION_STORE_FAILED"
	ErrCodeInvalidRequest     ErrorCode = "INVALID_REQUEST"
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

// New creates a StandardError with the given code and message.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryableByDefault(code),
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates a StandardError carrying the underlying error as details.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	se := New(code, message)
	if err != nil {
		se.Details = err.Error()
	}
	return se
}

// WithMetadata attaches context to the error and returns it.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func retryableByDefault(code ErrorCode) bool {
	switch code {
	case ErrCodeChatBackendUnreachable, ErrCodeSessionStoreFailed:
		return true
	default:
		return false
	}
}

// ==========================
// 2. HTTP Integration
// ==========================

// HTTPStatus maps an error code to the status the API layer should answer with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return 400
	case ErrCodeChatBackendUnreachable, ErrCodeChatBackendRejected:
		return 502
	case ErrCodeSessionStoreFailed:
		return 503
	default:
		// Pipeline failures never reach the wire as errors: the
		// orchestrator absorbs them into the sentinel result.
		return 500
	}
}
