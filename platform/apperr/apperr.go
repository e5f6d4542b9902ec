// Package apperr holds the typed errors services return. httpkit.HandleError
// turns the Kind into a status code, so services never import net/http
// status constants for error paths.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP layer.
type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound is a missing preference, office or snapshot.
	KindNotFound
	// KindValidation is caller input that failed checks below the handler.
	KindValidation
	// KindInternal is a wiring or programming fault.
	KindInternal
	// KindUnavailable is a dependency (object storage, CRM) that could not
	// serve the request right now.
	KindUnavailable
)

// Error is a classified error. Op names the failing operation as
// "module.component.action".
type Error struct {
	Kind    Kind
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HTTPStatus maps Kind to a status code.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err. Message is what the client sees; err is only logged.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithOp sets the operation and returns e.
func (e *Error) WithOp(op string) *Error {
	e.Op = op
	return e
}

func NotFound(message string) *Error    { return New(KindNotFound, message) }
func Validation(message string) *Error  { return New(KindValidation, message) }
func Internal(message string) *Error    { return New(KindInternal, message) }
func Unavailable(message string) *Error { return New(KindUnavailable, message) }

// GetKind returns the Kind of the first *Error in err's chain, or
// KindUnknown.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	return GetKind(err) == kind
}
