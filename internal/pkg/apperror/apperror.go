// Package apperror defines the error taxonomy shared by every HTTP-facing
// component. Each kind carries a machine-readable code and a default status.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies an error category. Its string value is the response code.
type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindDatabase        Kind = "DATABASE_ERROR"
	KindExternalService Kind = "EXTERNAL_SERVICE_ERROR"
	KindInternal        Kind = "INTERNAL_ERROR"
)

var statusByKind = map[Kind]int{
	KindBadRequest:      http.StatusBadRequest,
	KindUnauthorized:    http.StatusUnauthorized,
	KindForbidden:       http.StatusForbidden,
	KindNotFound:        http.StatusNotFound,
	KindConflict:        http.StatusConflict,
	KindValidation:      http.StatusUnprocessableEntity,
	KindDatabase:        http.StatusInternalServerError,
	KindExternalService: http.StatusServiceUnavailable,
	KindInternal:        http.StatusInternalServerError,
}

// Error is an explicitly constructed, categorised error.
type Error struct {
	Kind    Kind
	Message string
	// Fields maps a dotted field path to its violation messages. Only set for
	// KindValidation.
	Fields map[string][]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable code.
func (e *Error) Code() string { return string(e.Kind) }

// Operational reports whether the message is safe to show to clients.
// Only uncategorised internal failures are not.
func (e *Error) Operational() bool { return e.Kind != KindInternal }

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an error of the given kind around a cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func BadRequest(message string) *Error { return New(KindBadRequest, message) }

func Unauthorized(message string) *Error {
	if message == "" {
		message = "Unauthorized"
	}
	return New(KindUnauthorized, message)
}

func Forbidden(message string) *Error {
	if message == "" {
		message = "Forbidden"
	}
	return New(KindForbidden, message)
}

func NotFound(resource string) *Error {
	return New(KindNotFound, resource+" not found")
}

func Conflict(message string) *Error { return New(KindConflict, message) }

// Validation builds a validation failure carrying per-field messages.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "Validation failed", Fields: fields}
}

func Database(err error) *Error {
	return Wrap(KindDatabase, "Database operation failed", err)
}

func ExternalService(service string, err error) *Error {
	return Wrap(KindExternalService, service+" is unavailable", err)
}

func Internal(err error) *Error {
	msg := "Internal server error"
	if err != nil {
		msg = err.Error()
	}
	return Wrap(KindInternal, msg, err)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
