// Package apperr carries classified application errors: a failure enriched
// with a category, an HTTP status, contextual metadata, and an operational
// flag. Classified errors are checked with errors.As, never re-wrapped.
package apperr

import (
	"errors"
	"net/http"
)

// Category is the fixed failure taxonomy.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryAuthentication Category = "authentication"
	CategoryAuthorization  Category = "authorization"
	CategoryNotFound       Category = "not_found"
	CategoryRateLimit      Category = "rate_limit"
	CategoryExternalAPI    Category = "external_api"
	CategoryDatabase       Category = "database"
	CategoryNetwork        Category = "network"
	CategoryTimeout        Category = "timeout"
	CategoryInternal       Category = "internal"
)

// StatusFor returns the HTTP status associated with a category.
func StatusFor(c Category) int {
	switch c {
	case CategoryValidation:
		return http.StatusBadRequest
	case CategoryAuthentication:
		return http.StatusUnauthorized
	case CategoryAuthorization:
		return http.StatusForbidden
	case CategoryNotFound:
		return http.StatusNotFound
	case CategoryRateLimit:
		return http.StatusTooManyRequests
	case CategoryExternalAPI, CategoryNetwork:
		return http.StatusBadGateway
	case CategoryTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified failure. Operational marks expected conditions
// (validation rejections, missing records) as opposed to unexpected faults;
// only operational errors may surface their message to clients.
type Error struct {
	Message     string
	Category    Category
	Status      int
	Metadata    map[string]any
	Operational bool
}

func (e *Error) Error() string { return e.Message }

// WithMeta sets a metadata key and returns the error for chaining.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// New builds a classified error for the given category with its default
// status. Operational defaults to true.
func New(category Category, message string) *Error {
	return &Error{
		Message:     message,
		Category:    category,
		Status:      StatusFor(category),
		Operational: true,
	}
}

// Validation returns a validation error (400).
func Validation(message string) *Error { return New(CategoryValidation, message) }

// NotFound returns a not_found error (404).
func NotFound(message string) *Error { return New(CategoryNotFound, message) }

// Unauthenticated returns an authentication error (401).
func Unauthenticated(message string) *Error { return New(CategoryAuthentication, message) }

// Forbidden returns an authorization error (403).
func Forbidden(message string) *Error { return New(CategoryAuthorization, message) }

// Database returns a database error (500). Database failures are unexpected,
// so the result is non-operational and clients see a generic payload.
func Database(message string, cause error) *Error {
	e := New(CategoryDatabase, message)
	e.Operational = false
	if cause != nil {
		e.WithMeta("cause", cause.Error())
	}
	return e
}

// IsClassified reports whether err is (or wraps) a classified error.
func IsClassified(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// Wrap returns err unchanged if it is already classified; otherwise it boxes
// err as internal/500 with the original message preserved under "cause".
// The boxed form is non-operational: the failure was not anticipated.
func Wrap(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	w := New(CategoryInternal, "unhandled error")
	w.Operational = false
	if err != nil {
		w.WithMeta("cause", err.Error())
	}
	return w
}
