package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeCorrupt      ErrorCode = "CORRUPT"
	ErrCodeQuota        ErrorCode = "QUOTA_EXCEEDED"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrRecordNotFound = NewError(ErrCodeNotFound, "record not found")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
	ErrCorruptData    = NewError(ErrCodeCorrupt, "persisted collection failed to parse")
	ErrQuotaExceeded  = NewError(ErrCodeQuota, "substrate capacity exceeded")
	ErrUnauthorized   = NewError(ErrCodeUnauthorized, "unauthorized")
)

// NotFound builds a NOT_FOUND error carrying the offending id.
func NotFound(collection string, id int64) *Error {
	return NewError(ErrCodeNotFound, fmt.Sprintf("%s: no record with id %d", collection, id))
}

// Invalid builds an INVALID error naming the offending field.
func Invalid(field, reason string) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf("field %q %s", field, reason))
}

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
