// Package apperr defines the error taxonomy shared by the domain services and
// its translation to HTTP responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies a domain error for the request boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindPermission
	KindConflict
	KindRule
	KindUnauthenticated
)

// Error is a typed, recoverable domain condition. Sentinel values are
// compared with errors.Is.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Rule returns a sentinel for a violated business rule.
func Rule(code, msg string) *Error { return newError(KindRule, code, msg) }

// Conflict returns a sentinel for a uniqueness or state conflict.
func Conflict(code, msg string) *Error { return newError(KindConflict, code, msg) }

var (
	ErrNotFound   = newError(KindNotFound, "not_found", "not found")
	ErrPermission = newError(KindPermission, "permission_denied", "you do not have permission to perform this action")

	ErrUnauthenticated = newError(KindUnauthenticated, "unauthenticated", "authentication required")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a *ValidationError.
func Validation(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// KindOf returns the Kind of the first typed error in err's chain.
func KindOf(err error) Kind {
	if IsValidation(err) {
		return KindValidation
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var statusByKind = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindNotFound:   http.StatusNotFound,
	KindPermission: http.StatusForbidden,
	KindConflict:   http.StatusConflict,
	KindRule:       http.StatusUnprocessableEntity,

	KindUnauthenticated: http.StatusUnauthorized,
}

// HTTP converts a domain error into an *echo.HTTPError. Untyped errors
// become a 500 without leaking their text.
func HTTP(err error) error {
	if err == nil {
		return nil
	}
	status, ok := statusByKind[KindOf(err)]
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
	var e *Error
	if errors.As(err, &e) {
		return echo.NewHTTPError(status, map[string]string{"code": e.Code, "message": e.Message})
	}
	return echo.NewHTTPError(status, err.Error())
}
