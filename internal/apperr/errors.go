// Package apperr holds the error taxonomy shared by the action pipeline and
// its HTTP handlers. Every terminal pipeline failure is an *Error carrying a
// Kind, the stage that failed and a message that is safe to show a client.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindUnauthorized Kind = "unauthorized"
	KindValidation   Kind = "validation_error"
	KindUpstream     Kind = "upstream_error"
	KindNoOutput     Kind = "no_output"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind    Kind
	Stage   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s [%s]: %s", e.Kind, e.Stage, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

func NotFound(msg string) *Error {
	return New(KindNotFound, msg)
}

func Unauthorized(msg string) *Error {
	return New(KindUnauthorized, msg)
}

func Validation(msg string) *Error {
	return New(KindValidation, msg)
}

func Validationf(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func Upstream(msg string, err error) *Error {
	return Wrap(KindUpstream, msg, err)
}

// WithStage returns a copy of e tagged with stage. An existing stage is kept.
func (e *Error) WithStage(stage string) *Error {
	cp := *e
	if cp.Stage == "" {
		cp.Stage = stage
	}
	return &cp
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// KindOf reports the Kind of err, or KindInternal when err carries none.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}

func HTTPStatus(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindUpstream:
		return http.StatusBadGateway
	case KindNoOutput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
