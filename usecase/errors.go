package usecase

import (
	"github.com/pkg/errors"

	"notemate/repository"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	KindTooLarge
)

// Error is a failure the caller can act on. Anything else reaching a handler
// is treated as a server error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func invalid(message string) error      { return newError(KindValidation, message) }
func notFound(message string) error     { return newError(KindNotFound, message) }
func unauthorized(message string) error { return newError(KindUnauthorized, message) }
func forbidden(message string) error    { return newError(KindForbidden, message) }
func conflict(message string) error     { return newError(KindConflict, message) }
func tooLarge(message string) error     { return newError(KindTooLarge, message) }

// AsError unwraps err into an *Error when it is one.
func AsError(err error) (*Error, bool) {
	var ue *Error
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// orNotFound turns repository.ErrNotFound into a not-found error with the
// given message and passes everything else through.
func orNotFound(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(message)
	}
	return err
}

func orConflict(err error, message string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return conflict(message)
	}
	return err
}
