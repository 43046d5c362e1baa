package netaccess

import (
	"errors"
	"fmt"

	"github.com/wattclient/httpengine/pkg/httpengine/clienterr"
)

// ErrUnsupportedScheme is returned by Manager.Do for any URL whose
// scheme is not "http" — the manager itself does not implement a
// baseline fallback transport, leaving that to its caller, exactly as
// spec.md §6 describes ("others fall through to a baseline
// implementation").
var ErrUnsupportedScheme = errors.New("netaccess: unsupported scheme")

// Error is the manager's own error taxonomy, a thin wrap of the
// underlying engine's clienterr.Kind so callers above netaccess never
// need to import httpclient/clienterr directly.
type Error struct {
	Kind  clienterr.Kind
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("netaccess: %s: %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("netaccess: %s", e.Kind)
}

func (e *Error) Unwrap() error { return e.cause }

// fromEngineError maps a clienterr.Kind from the engine into a
// netaccess.Error, per spec.md §6's "translates engine ErrorKind
// values into its own error taxonomy".
func fromEngineError(kind clienterr.Kind, cause error) *Error {
	if kind == clienterr.None {
		return nil
	}
	return &Error{Kind: kind, cause: cause}
}
