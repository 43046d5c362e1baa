// Package clienterr defines the error taxonomy the client engine
// classifies every terminal failure into, plus a wrapped-error type
// compatible with errors.Is/errors.As.
package clienterr

import "fmt"

// Kind enumerates the engine-visible error categories. The zero value,
// None, means no error.
type Kind int

const (
	// None means no error occurred.
	None Kind = iota
	// NetworkError is a generic transport failure: connect refused, DNS
	// failure, write error.
	NetworkError
	// RemoteHostClosedError means the peer closed the connection while a
	// response was in flight.
	RemoteHostClosedError
	// ResponseInvalidError means the parser rejected the byte stream.
	ResponseInvalidError
	// AbortedError means the caller invoked Abort.
	AbortedError
)

func (k Kind) String() string {
	switch k {
	case None:
		return "None"
	case NetworkError:
		return "NetworkError"
	case RemoteHostClosedError:
		return "RemoteHostClosedError"
	case ResponseInvalidError:
		return "ResponseInvalidError"
	case AbortedError:
		return "AbortedError"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error wraps a Kind with an optional underlying cause, satisfying the
// error interface and errors.Unwrap.
type Error struct {
	Kind  Kind
	cause error
}

// New creates an Error of the given kind with no underlying cause.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.cause)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying cause, if any, enabling errors.Is/As to
// see through this wrapper.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is a *Error with the same Kind, so that
// errors.Is(err, clienterr.New(clienterr.NetworkError)) works without
// comparing the (possibly absent) underlying cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}
