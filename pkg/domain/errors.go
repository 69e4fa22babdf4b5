package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	// Field names the offending input field for validation errors.
	Field string
	// Data carries structured context for the client, e.g. required vs. current thresholds.
	Data any
	Err  error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithData returns a copy of e carrying data.
func (e *DomainError) WithData(data any) *DomainError {
	cp := *e
	cp.Data = data
	return &cp
}

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeLimitExceeded = "LIMIT_EXCEEDED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// NewNotFoundError creates a new not found error, e.g. "User not found".
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a validation error for field.
func NewValidationError(field, msg string) *DomainError {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
		Field:   field,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) *DomainError {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewLimitExceededError creates an error for an exhausted per-window allowance.
func NewLimitExceededError(msg string) *DomainError {
	return &DomainError{
		Code:    ErrCodeLimitExceeded,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) *DomainError {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// AsDomainError extracts the first DomainError in err's chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func hasCode(err error, code string) bool {
	de, ok := AsDomainError(err)
	return ok && de.Code == code
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool { return hasCode(err, ErrCodeValidation) }

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsLimitExceeded checks if the error is a limit exceeded error
func IsLimitExceeded(err error) bool { return hasCode(err, ErrCodeLimitExceeded) }

// IsInternal checks if the error is an internal error
func IsInternal(err error) bool { return hasCode(err, ErrCodeInternal) }

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if de, ok := AsDomainError(err); ok {
		return de.Code
	}
	return ErrCodeInternal
}
