// Package httpwriter serializes an HTTP/1.1 request into a reusable
// scratch buffer and hands the bytes off to a transport.Transport.
package httpwriter

import (
	"log/slog"

	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/internal/bytesconv"
	"github.com/wattclient/httpengine/pkg/httpengine/transport"
)

// Pre-compiled wire fragments, written with append rather than string
// concatenation so the request line and headers never allocate beyond
// the scratch buffer's own growth.
var (
	methodGET    = []byte("GET")
	methodHead   = []byte("HEAD")
	methodPost   = []byte("POST")
	methodPut    = []byte("PUT")
	methodDelete = []byte("DELETE")

	space          = []byte(" ")
	http11         = []byte("HTTP/1.1")
	crlf           = []byte("\r\n")
	contentLength  = []byte("Content-Length: ")
)

// initialScratchCap is the minimum scratch buffer reservation on first
// use.
const initialScratchCap = 8192

// bodyInlineThreshold is the body-size cutoff below which the body is
// appended to the scratch buffer and sent in a single transport write;
// at or above it the body is written as a second, separate transport
// write to avoid copying large payloads.
const bodyInlineThreshold = 4096

// scratchReleaseThreshold is the scratch buffer capacity above which
// the buffer is released (rather than just truncated) after a
// request, bounding peak idle memory after a large-body burst.
const scratchReleaseThreshold = 16384

// Writer serializes requests using a single reusable scratch buffer.
type Writer struct {
	transport transport.Transport
	buf       []byte
}

// New creates a Writer with no transport attached; SetTransport must
// be called before Write/Get/Post/... will do anything.
func New() *Writer {
	return &Writer{}
}

// SetTransport attaches the transport requests are written to.
func (w *Writer) SetTransport(t transport.Transport) {
	w.transport = t
}

// Get writes a GET request with no body.
func (w *Writer) Get(target []byte, headers header.Collection) error {
	return w.Write(methodGET, target, headers, nil)
}

// Head writes a HEAD request with no body.
func (w *Writer) Head(target []byte, headers header.Collection) error {
	return w.Write(methodHead, target, headers, nil)
}

// Post writes a POST request with body.
func (w *Writer) Post(target []byte, headers header.Collection, body []byte) error {
	return w.Write(methodPost, target, headers, body)
}

// Put writes a PUT request with body.
func (w *Writer) Put(target []byte, headers header.Collection, body []byte) error {
	return w.Write(methodPut, target, headers, body)
}

// Delete writes a DELETE request with no body.
func (w *Writer) Delete(target []byte, headers header.Collection) error {
	return w.Write(methodDelete, target, headers, nil)
}

// Write serializes method/target/headers/body into the scratch buffer
// and hands it to the transport. Writing with no transport attached is
// a programmer error: it is logged and treated as a no-op, never a
// returned error, matching spec.md §4.3.
func (w *Writer) Write(method, target []byte, headers header.Collection, body []byte) error {
	if w.transport == nil {
		slog.Warn("httpwriter: Write called with no transport attached")
		return nil
	}

	w.reset()

	w.buf = append(w.buf, method...)
	w.buf = append(w.buf, space...)
	w.buf = append(w.buf, target...)
	w.buf = append(w.buf, space...)
	w.buf = append(w.buf, http11...)
	w.buf = append(w.buf, crlf...)

	w.buf = headers.WriteTo(w.buf)

	if len(body) > 0 {
		w.buf = append(w.buf, contentLength...)
		w.buf = bytesconv.AppendInt(w.buf, len(body))
		w.buf = append(w.buf, crlf...)
	}

	w.buf = append(w.buf, crlf...)

	var err error
	switch {
	case len(body) == 0:
		_, err = w.transport.Write(w.buf)
	case len(body) < bodyInlineThreshold:
		w.buf = append(w.buf, body...)
		_, err = w.transport.Write(w.buf)
	default:
		if _, err = w.transport.Write(w.buf); err == nil {
			_, err = w.transport.Write(body)
		}
	}

	w.release()

	return err
}

func (w *Writer) reset() {
	if cap(w.buf) == 0 {
		w.buf = make([]byte, 0, initialScratchCap)
	} else {
		w.buf = w.buf[:0]
	}
}

// release clears the scratch buffer for the next request, freeing it
// entirely if it grew past scratchReleaseThreshold so that a single
// large-body request does not inflate idle memory indefinitely.
func (w *Writer) release() {
	if cap(w.buf) > scratchReleaseThreshold {
		w.buf = nil
	} else {
		w.buf = w.buf[:0]
	}
}
