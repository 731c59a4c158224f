package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown        ErrorCode = "UNKNOWN"
	ErrInternal       ErrorCode = "INTERNAL"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrNotFound       ErrorCode = "NOT_FOUND"
	ErrPermission     ErrorCode = "PERMISSION"
	ErrNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// Configuration errors
	ErrConfigLoad      ErrorCode = "CONFIG_LOAD"
	ErrConfigParse     ErrorCode = "CONFIG_PARSE"
	ErrConfigValid     ErrorCode = "CONFIG_INVALID"
	ErrInvalidStrategy ErrorCode = "INVALID_STRATEGY"

	// Symlink resolution errors
	ErrCircularReference    ErrorCode = "CIRCULAR_REFERENCE"
	ErrDepthExceeded        ErrorCode = "DEPTH_EXCEEDED"
	ErrContainmentViolation ErrorCode = "CONTAINMENT_VIOLATION"

	// Signature errors
	ErrSigningFailure ErrorCode = "SIGNING_FAILURE"

	// Move transaction errors
	ErrInsufficientSpace ErrorCode = "INSUFFICIENT_SPACE"
	ErrOperationFailed   ErrorCode = "OPERATION_FAILED"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
	ErrFileRead     ErrorCode = "FILE_READ"
	ErrDirCreate    ErrorCode = "DIR_CREATE"
)

// NDetectError represents a structured error with code and details
type NDetectError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *NDetectError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *NDetectError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *NDetectError) Is(target error) bool {
	var targetErr *NDetectError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new NDetectError with the given code and message
func New(code ErrorCode, message string) *NDetectError {
	return &NDetectError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new NDetectError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *NDetectError {
	return &NDetectError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with an NDetectError
func Wrap(err error, code ErrorCode, message string) *NDetectError {
	if err == nil {
		return nil
	}
	return &NDetectError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *NDetectError {
	if err == nil {
		return nil
	}
	return &NDetectError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *NDetectError) WithDetail(key string, value interface{}) *NDetectError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var ndErr *NDetectError
	if errors.As(err, &ndErr) {
		return ndErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not an NDetectError
func GetErrorCode(err error) ErrorCode {
	var ndErr *NDetectError
	if errors.As(err, &ndErr) {
		return ndErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not an NDetectError
func GetErrorDetails(err error) map[string]interface{} {
	var ndErr *NDetectError
	if errors.As(err, &ndErr) {
		return ndErr.Details
	}
	return nil
}
