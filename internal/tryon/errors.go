package tryon

import (
	"errors"
	"fmt"
)

// Kind classifies a try-on failure.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindInvalidRequest Kind = "invalid_request"
	KindFetch          Kind = "fetch"
	KindDecode         Kind = "decode"
	KindBadRequest     Kind = "bad_request"
	KindNoImage        Kind = "no_image"
	KindCapability     Kind = "capability"
)

// Error is the single error type returned by the pipeline. Status carries the
// HTTP status of a failed fetch or capability call when there was one.
type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

// Sentinels for errors.Is. They match any *Error of the same Kind.
var (
	ErrConfiguration  = &Error{Kind: KindConfiguration}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrFetch          = &Error{Kind: KindFetch}
	ErrDecode         = &Error{Kind: KindDecode}
	ErrBadRequest     = &Error{Kind: KindBadRequest}
	ErrNoImage        = &Error{Kind: KindNoImage}
	ErrCapability     = &Error{Kind: KindCapability}
)

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("tryon %s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("tryon %s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

// KindOf returns the Kind of a pipeline error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind Kind, status int, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Status: status, Err: err, Message: fmt.Sprintf(format, args...)}
}
