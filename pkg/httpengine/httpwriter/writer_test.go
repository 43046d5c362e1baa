package httpwriter

import (
	"bytes"
	"testing"
	"time"

	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/transport"
)

// capture connects a Writer to a transport.Pipe and drains the server
// end of the pipe on a background goroutine: net.Pipe is unbuffered, so
// a Write on the client end blocks until the peer has read its bytes.
// The returned read function stops the drain and returns every byte the
// server end received.
func capture(t *testing.T) (*Writer, func() []byte, func()) {
	t.Helper()

	p, server := transport.NewPipe()
	connected := make(chan struct{}, 1)
	p.SetCallbacks(func() { connected <- struct{}{} }, nil, nil)

	if err := p.Connect("h", 80); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	<-connected

	w := New()
	w.SetTransport(p)

	var received []byte
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		tmp := make([]byte, 4096)
		for {
			n, err := server.Read(tmp)
			received = append(received, tmp[:n]...)
			if err != nil {
				return
			}
		}
	}()

	read := func() []byte {
		// Every Write has returned by now, so the peer has already read
		// all of its bytes; expiring the deadline only ends the drain.
		server.SetReadDeadline(time.Now())
		<-drained
		return received
	}

	cleanup := func() { server.Close() }

	return w, read, cleanup
}

func TestWriterMinimalGET(t *testing.T) {
	w, read, cleanup := capture(t)
	defer cleanup()

	var headers header.Collection
	headers.AddString("Accept", "*")

	if err := w.Get([]byte("/p"), headers); err != nil {
		t.Fatalf("Get: %v", err)
	}

	got := read()
	want := "GET /p HTTP/1.1\r\nAccept: *\r\n\r\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriterPostSmallBody(t *testing.T) {
	w, read, cleanup := capture(t)
	defer cleanup()

	var headers header.Collection
	headers.AddString("Accept", "*")
	headers.AddString("Content-Type", "text/plain")

	if err := w.Post([]byte("/x"), headers, []byte("hi")); err != nil {
		t.Fatalf("Post: %v", err)
	}

	got := read()
	want := "POST /x HTTP/1.1\r\nAccept: *\r\nContent-Type: text/plain\r\nContent-Length: 2\r\n\r\nhi"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriterPostLargeBodyTwoWrites(t *testing.T) {
	w, read, cleanup := capture(t)
	defer cleanup()

	body := bytes.Repeat([]byte{'a'}, 8192)

	var headers header.Collection
	if err := w.Post([]byte("/x"), headers, body); err != nil {
		t.Fatalf("Post: %v", err)
	}

	got := read()
	wantHead := "POST /x HTTP/1.1\r\nContent-Length: 8192\r\n\r\n"
	if !bytes.HasPrefix(got, []byte(wantHead)) {
		t.Fatalf("head mismatch, got prefix %q", got[:min(len(got), len(wantHead))])
	}
	gotBody := got[len(wantHead):]
	if !bytes.Equal(gotBody, body) {
		t.Fatalf("body mismatch: len(got)=%d len(want)=%d", len(gotBody), len(body))
	}
}

func TestWriterNoBodyNoContentLength(t *testing.T) {
	w, read, cleanup := capture(t)
	defer cleanup()

	var headers header.Collection
	if err := w.Delete([]byte("/r"), headers); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got := read()
	if bytes.Contains(got, []byte("Content-Length")) {
		t.Fatalf("unexpected Content-Length in %q", got)
	}
	want := "DELETE /r HTTP/1.1\r\n\r\n"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestWriterNoTransportIsNoOp(t *testing.T) {
	w := New()
	var headers header.Collection
	if err := w.Get([]byte("/"), headers); err != nil {
		t.Fatalf("Get with no transport should not error, got %v", err)
	}
}

func TestWriterReleasesLargeScratchBuffer(t *testing.T) {
	w, _, cleanup := capture(t)
	defer cleanup()

	// A body at or above the inline threshold is written on its own and
	// never enters the scratch buffer, so a large header is what grows
	// the scratch past the release threshold.
	body := bytes.Repeat([]byte{'b'}, 20000)
	var headers header.Collection
	headers.Add([]byte("X-Big"), bytes.Repeat([]byte{'v'}, 20000))
	if err := w.Post([]byte("/x"), headers, body); err != nil {
		t.Fatalf("Post: %v", err)
	}

	if w.buf != nil {
		t.Fatalf("expected scratch buffer to be released, cap=%d", cap(w.buf))
	}
}

func TestWriterRetainsSmallScratchBuffer(t *testing.T) {
	w, _, cleanup := capture(t)
	defer cleanup()

	var headers header.Collection
	if err := w.Get([]byte("/p"), headers); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if w.buf == nil {
		t.Fatal("expected scratch buffer to be retained")
	}
	if len(w.buf) != 0 {
		t.Fatalf("expected length reset to zero, got %d", len(w.buf))
	}
}

