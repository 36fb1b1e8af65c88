// Package apperror holds the error kinds shared by every handler and the
// HTTP status each one maps to.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	Unexpected Kind = iota
	InvalidIdentifier
	InvalidPayload
	NotFound
	UnsupportedMethod
)

func (k Kind) String() string {
	switch k {
	case InvalidIdentifier:
		return "invalid_identifier"
	case InvalidPayload:
		return "invalid_payload"
	case NotFound:
		return "not_found"
	case UnsupportedMethod:
		return "unsupported_method"
	default:
		return "unexpected"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case InvalidIdentifier, InvalidPayload:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case UnsupportedMethod:
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind together with the message shown to the caller.
// Details holds per-field validation messages for InvalidPayload.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, &Error{Kind: NotFound}) works without comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Invalid(message string, details []string) *Error {
	return &Error{Kind: InvalidPayload, Message: message, Details: details}
}

// Wrap classifies err as an unexpected failure unless it already carries a kind.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: Unexpected, Err: err}
}
