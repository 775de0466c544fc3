package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a domain error for transport mapping.
type ErrorKind string

const (
	KindNotFound     ErrorKind = "not_found"
	KindValidation   ErrorKind = "validation"
	KindInvalidState ErrorKind = "invalid_state"
	KindConflict     ErrorKind = "conflict"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
)

// Error is the error type returned by domain and application code.
// Two errors match under errors.Is when their codes are equal, so packages
// can export sentinel values and still attach request-specific messages.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e with a different message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: msg}
}

// New creates a domain error.
func New(kind ErrorKind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// NewNotFoundError creates a not-found error for the given entity.
func NewNotFoundError(entity, id string) *Error {
	code := strings.ToUpper(entity) + "_NOT_FOUND"
	return &Error{
		Kind:    KindNotFound,
		Code:    code,
		Message: fmt.Sprintf("%s %s not found", strings.ToLower(entity), id),
	}
}

// NewValidationError creates a generic input validation error.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}

// NewInvalidStateError creates an error for an illegal state transition.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Code:    "INVALID_STATE",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewConflictError creates a generic conflict error.
func NewConflictError(message string) *Error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: message}
}

// NewForbiddenError creates a generic forbidden error.
func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: message}
}

// ErrInvalidState is the sentinel matching any NewInvalidStateError.
var ErrInvalidState = &Error{Kind: KindInvalidState, Code: "INVALID_STATE", Message: "invalid state"}

// ErrConcurrentModification is returned when a conditional write matched no row.
var ErrConcurrentModification = &Error{
	Kind:    KindInvalidState,
	Code:    "INVALID_STATE",
	Message: "record was modified by another transaction",
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
