package httpparser

import "errors"

// Parse-time errors. A Parser that hits any of these transitions to a
// dead state until Clear is called.
var (
	ErrMalformedStatusLine = errors.New("httpparser: malformed status line")
	ErrUnsupportedProtocol = errors.New("httpparser: unsupported protocol version")
	ErrMalformedHeader     = errors.New("httpparser: malformed header line")
	ErrInvalidContentLength = errors.New("httpparser: invalid Content-Length value")
	ErrInvalidChunkSize    = errors.New("httpparser: invalid chunk size")
	ErrChunkOverflow       = errors.New("httpparser: chunk size exceeds limit")
	ErrDead                = errors.New("httpparser: parser is dead, call Clear")
)
