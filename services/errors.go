package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every DomainError unwraps to exactly one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrDuplicateVote = errors.New("duplicate vote")
	ErrInvalidField  = errors.New("invalid field")
	ErrUpdateFailed  = errors.New("update failed")
	ErrInternal      = errors.New("internal error")
)

type DomainError struct {
	Kind    error
	Status  int
	Message string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func domainError(kind error, status int, message string) *DomainError {
	return &DomainError{Kind: kind, Status: status, Message: message}
}

func validationError(format string, args ...any) *DomainError {
	return domainError(ErrValidation, http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func unauthorized(message string) *DomainError {
	return domainError(ErrUnauthorized, http.StatusUnauthorized, message)
}

func forbidden(message string) *DomainError {
	return domainError(ErrForbidden, http.StatusForbidden, message)
}

func notFound(message string) *DomainError {
	return domainError(ErrNotFound, http.StatusNotFound, message)
}

func updateFailed(message string) *DomainError {
	return domainError(ErrUpdateFailed, http.StatusInternalServerError, message)
}

func internalError(message string) *DomainError {
	return domainError(ErrInternal, http.StatusInternalServerError, message)
}

// Describe returns the HTTP status and client message for err. Anything that
// is not a DomainError is reported as a generic 500.
func Describe(err error) (int, string) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Status, de.Message
	}
	return http.StatusInternalServerError, "Internal server error"
}

// passThrough keeps domain errors raised inside a transaction and replaces
// anything else with fallback.
func passThrough(err error, fallback *DomainError) error {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return fallback
}
