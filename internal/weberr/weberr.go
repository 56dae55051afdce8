// Package weberr defines the error taxonomy shared by services and handlers.
// Services return *Error values; handlers map them to HTTP statuses and log
// the wrapped cause. The cause never reaches the client.
package weberr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	// KindValidation marks malformed or out-of-range client input.
	KindValidation Kind = iota
	// KindUnauthorized marks missing, expired, or unresolvable credentials.
	KindUnauthorized
	// KindInvalid marks well-formed but cryptographically wrong material.
	KindInvalid
	// KindConflict marks uniqueness violations such as a taken username.
	KindConflict
	// KindStore marks store connectivity or query failures.
	KindStore
	// KindEncoding marks malformed JSON or base64 inside a signed envelope.
	KindEncoding
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalid:
		return "invalid"
	case KindConflict:
		return "conflict"
	case KindStore:
		return "store"
	case KindEncoding:
		return "encoding"
	default:
		return "unknown"
	}
}

// Error carries a kind, a client-safe message, and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the kind to the status code sent to the client.
// Encoding failures happen inside the authentication envelope, so they map
// to 401 rather than 400.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation, KindInvalid, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized, KindEncoding:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Invalid(msg string) *Error      { return &Error{Kind: KindInvalid, Message: msg} }
func Conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }

// Store wraps a storage failure. The cause stays server-side; clients only
// see the generic message.
func Store(err error) *Error {
	return &Error{Kind: KindStore, Message: "storage failure", Err: err}
}

// Encoding wraps a decode failure from inside a signed envelope.
func Encoding(err error) *Error {
	return &Error{Kind: KindEncoding, Message: "malformed authorization payload", Err: err}
}

// From returns err as *Error, wrapping unknown errors as store failures.
func From(err error) *Error {
	var we *Error
	if errors.As(err, &we) {
		return we
	}
	return Store(err)
}
