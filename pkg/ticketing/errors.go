package ticketing

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateTicket  = errors.New("duplicate ticket")
	ErrOptionNotFound   = errors.New("option not found")
	ErrAlreadyClaimed   = errors.New("ticket already claimed")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDelivery         = errors.New("delivery failed")
	ErrConfiguration    = errors.New("ticketing not configured")
)

// Error is a failure that is reported to the user that caused it.
type Error struct {
	// Kind is one of the Err* kinds.
	Kind error

	// Msg is the user facing text.
	Msg string

	// Err is the underlying cause, if any.
	Err error
}

func newError(kind error, err error, format string, args ...any) *Error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
		Err:  err,
	}
}

// Error returns the user facing text.
func (e *Error) Error() string {
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserMessage returns the text to show the user for err, and whether err is a reportable failure at all.
func UserMessage(err error) (string, bool) {
	e := new(Error)
	if errors.As(err, &e) {
		return e.Msg, true
	}
	return "", false
}
