package httpclient

import (
	"errors"
	"io"
)

// isRemoteClose reports whether err looks like the peer having closed
// its end of the connection rather than some other transport failure
// (refused connect, reset, timeout). io.EOF and io.ErrUnexpectedEOF
// are what net.Conn.Read returns on an orderly peer close.
func isRemoteClose(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}
