package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindConflict Kind = iota + 1
	KindNotFound
	KindBadRequest
	KindAuthentication
	KindUnauthorized
	KindStorage
	KindPersistence
)

// Machine-readable failure codes, stable across releases and distinct
// from any human-facing message.
const (
	CodeUserAlreadyExists  = "USER_ALREADY_EXISTS"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodePasswordNotAllowed = "PASSWORD_NOT_ALLOWED"
	CodePasswordNotMatch   = "PASSWORD_NOT_MATCH"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeStorageFailure     = "STORAGE_FAILURE"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
)

// Error is a typed failure raised by the use-case layer.
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the failure kind to a transport status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindBadRequest:
		return http.StatusBadRequest
	case KindAuthentication, KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Conflict(code string) error     { return &Error{Kind: KindConflict, Code: code} }
func NotFound(code string) error     { return &Error{Kind: KindNotFound, Code: code} }
func BadRequest(code string) error   { return &Error{Kind: KindBadRequest, Code: code} }
func Unauthorized(code string) error { return &Error{Kind: KindUnauthorized, Code: code} }

// Authentication wraps a token verification failure.
func Authentication(err error) error {
	return &Error{Kind: KindAuthentication, Code: CodeTokenInvalid, Err: err}
}

// Storage wraps a blob-store collaborator failure.
func Storage(err error) error {
	return &Error{Kind: KindStorage, Code: CodeStorageFailure, Err: err}
}

// Persistence wraps a database collaborator failure.
func Persistence(err error) error {
	return &Error{Kind: KindPersistence, Code: CodePersistenceFailure, Err: err}
}

// From extracts the typed failure from err, if any.
func From(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a typed failure of the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := From(err)
	return ok && e.Kind == k
}
