package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypePermissionDenied  ErrorType = "permission_denied"
	ErrorTypeInvalidArgument   ErrorType = "invalid_argument"
	ErrorTypeInvalidReference  ErrorType = "invalid_reference"
	ErrorTypeInvalidTransition ErrorType = "invalid_state_transition"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeInternal          ErrorType = "internal"
)

// ChainError represents a structured error surfaced by a chaincode operation.
// Returning one from a transaction function invalidates the whole transaction,
// so the failing condition is reported without any partial write committing.
type ChainError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *ChainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ChainError) Unwrap() error {
	return e.Cause
}

// NewPermissionDenied creates an error for a caller lacking the required role,
// registration or activity status
func NewPermissionDenied(message string) *ChainError {
	return &ChainError{
		Type:    ErrorTypePermissionDenied,
		Code:    ErrCodePermissionDenied,
		Message: message,
	}
}

// NewInvalidArgument creates an error for a rejected operation parameter
func NewInvalidArgument(message string) *ChainError {
	return &ChainError{
		Type:    ErrorTypeInvalidArgument,
		Code:    ErrCodeInvalidArgument,
		Message: message,
	}
}

// NewInvalidReference creates an error for a claim identifier outside the
// assigned range
func NewInvalidReference(message string) *ChainError {
	return &ChainError{
		Type:    ErrorTypeInvalidReference,
		Code:    ErrCodeInvalidReference,
		Message: message,
	}
}

// NewInvalidTransition creates an error for a forbidden status transition
func NewInvalidTransition(message string) *ChainError {
	return &ChainError{
		Type:    ErrorTypeInvalidTransition,
		Code:    ErrCodeInvalidTransition,
		Message: message,
	}
}

// NewConflict creates an error for an operation that may run at most once
func NewConflict(message string) *ChainError {
	return &ChainError{
		Type:    ErrorTypeConflict,
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// NewInternal creates an error for a world-state or serialization failure
func NewInternal(message string, cause error) *ChainError {
	return &ChainError{
		Type:    ErrorTypeInternal,
		Code:    ErrCodeInternal,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the ErrorType carried by err, or ErrorTypeInternal when err
// is not a ChainError
func TypeOf(err error) ErrorType {
	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		return chainErr.Type
	}
	return ErrorTypeInternal
}

// Common error codes
const (
	ErrCodePermissionDenied  = "PERMISSION_DENIED"
	ErrCodeInvalidArgument   = "INVALID_ARGUMENT"
	ErrCodeInvalidReference  = "INVALID_REFERENCE"
	ErrCodeInvalidTransition = "INVALID_STATE_TRANSITION"
	ErrCodeConflict          = "ALREADY_EXISTS"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
