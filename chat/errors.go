package chat

import (
	"errors"
	"fmt"
)

// ErrorCode represents a categorized error type.
type ErrorCode int

const (
	// Protocol errors (from server rejection notices)
	ErrorUnknown ErrorCode = iota
	ErrorUnauthorized
	ErrorMalformedPayload
	ErrorBadRequest
	ErrorRateLimited
	ErrorInternalServer

	// Client-side errors
	ErrorConnection
	ErrorDisconnected
	ErrorTimeout
	ErrorInvalidConfig
	ErrorNotConnected
	ErrorSerialization
	ErrorHistoryUnavailable
	ErrorUploadFailed
	ErrorInvalidMessage
	ErrorSessionClosed
)

// String returns the string representation of an ErrorCode.
func (e ErrorCode) String() string {
	switch e {
	case ErrorUnknown:
		return "unknown"
	case ErrorUnauthorized:
		return "unauthorized"
	case ErrorMalformedPayload:
		return "malformed_payload"
	case ErrorBadRequest:
		return "bad_request"
	case ErrorRateLimited:
		return "rate_limited"
	case ErrorInternalServer:
		return "internal_error"
	case ErrorConnection:
		return "connection_error"
	case ErrorDisconnected:
		return "disconnected"
	case ErrorTimeout:
		return "timeout"
	case ErrorInvalidConfig:
		return "invalid_config"
	case ErrorNotConnected:
		return "not_connected"
	case ErrorSerialization:
		return "serialization_error"
	case ErrorHistoryUnavailable:
		return "history_unavailable"
	case ErrorUploadFailed:
		return "upload_failed"
	case ErrorInvalidMessage:
		return "invalid_message"
	case ErrorSessionClosed:
		return "session_closed"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// ParseErrorCode converts a protocol error code string to ErrorCode.
func ParseErrorCode(code string) ErrorCode {
	switch code {
	case "unauthorized":
		return ErrorUnauthorized
	case "malformed_payload", "invalid_payload":
		return ErrorMalformedPayload
	case "bad_request":
		return ErrorBadRequest
	case "rate_limited":
		return ErrorRateLimited
	case "internal_error":
		return ErrorInternalServer
	default:
		return ErrorUnknown
	}
}

// EngineError is a structured error with code and context.
type EngineError struct {
	Code    ErrorCode
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *EngineError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is comparison by code.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new EngineError with the given code and message.
func NewError(code ErrorCode, message string) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with an EngineError.
func WrapError(code ErrorCode, message string, err error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// FromProtocolError converts a server rejection notice to EngineError.
func FromProtocolError(e *ProtocolError) *EngineError {
	if e == nil {
		return nil
	}
	return &EngineError{
		Code:    ParseErrorCode(e.Code),
		Message: e.Msg,
	}
}

// IsProtocolError checks if an error originated from a server notice.
func IsProtocolError(err error) bool {
	if err == nil {
		return false
	}
	var ee *EngineError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Code >= ErrorUnauthorized && ee.Code <= ErrorInternalServer
}

// IsConnectionError checks if an error is a connection-related error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var ee *EngineError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Code == ErrorConnection || ee.Code == ErrorDisconnected || ee.Code == ErrorTimeout
}
