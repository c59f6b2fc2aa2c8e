// Package apperr is the error taxonomy shared by services and handlers.
// Callers branch on Kind instead of matching message text.
package apperr

import (
	"errors"
	"net/http"
)

type Kind string

const (
	KindValidation         Kind = "validation_error"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindAIService          Kind = "ai_service_error"
	KindAIResponse         Kind = "ai_response_error"
	KindStoreUnavailable   Kind = "store_unavailable"
	KindInternal           Kind = "internal_error"
)

// Error carries a Kind, a caller-safe Detail and the underlying cause.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func Wrap(kind Kind, detail string, err error) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Detail
	}
	if e.Detail == "" {
		return e.Err.Error()
	}
	return e.Detail + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind, so errors.Is(err, apperr.New(k, ""))
// works as a kind check.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps a Kind to the status code the API responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindDuplicateEmail, KindInvalidCredentials:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what 5xx responses show instead of the internal detail.
func (k Kind) PublicMessage() string {
	switch k {
	case KindAIService:
		return "AI service is unavailable, please try again later"
	case KindAIResponse:
		return "AI service returned an unreadable answer"
	case KindStoreUnavailable:
		return "Storage is temporarily unavailable"
	default:
		return "Internal server error"
	}
}
