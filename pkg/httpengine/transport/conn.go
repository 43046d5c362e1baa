package transport

import (
	"errors"
	"net"
	"sync"
)

var errNotConnected = errors.New("transport: not connected")

// connTransport implements the poll/notify machinery shared by TCP and
// Pipe on top of any net.Conn: a private goroutine owns the blocking
// Read and appends newly arrived bytes to an internal buffer, firing
// OnReadable; the owner drains that buffer via ReadInto at its own
// pace, never touching net.Conn directly. This is the async
// notification layer spec.md's transport contract requires but that a
// bare net.Conn does not provide.
type connTransport struct {
	mu      sync.Mutex
	conn    net.Conn
	state   ConnState
	pending []byte

	onConnected func()
	onReadable  func()
	onError     func(error)
}

// SetCallbacks installs the notification hooks.
func (t *connTransport) SetCallbacks(onConnected, onReadable func(), onError func(error)) {
	t.mu.Lock()
	t.onConnected = onConnected
	t.onReadable = onReadable
	t.onError = onError
	t.mu.Unlock()
}

// State reports the current connection lifecycle state.
func (t *connTransport) State() ConnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// BytesAvailable reports how many bytes ReadInto can return without
// blocking.
func (t *connTransport) BytesAvailable() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// ReadInto copies already-buffered bytes into buf.
func (t *connTransport) ReadInto(buf []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.pending) == 0 {
		return 0, nil
	}
	n := copy(buf, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// Write sends b over the underlying connection.
func (t *connTransport) Write(b []byte) (int, error) {
	t.mu.Lock()
	conn := t.conn
	state := t.state
	t.mu.Unlock()

	if state != Connected || conn == nil {
		return 0, errNotConnected
	}
	return conn.Write(b)
}

// Disconnect closes the connection and discards buffered bytes, but
// leaves the Transport ready for a subsequent Connect.
func (t *connTransport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.state = Unconnected
	t.pending = nil
	t.mu.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Close is equivalent to Disconnect for connTransport-backed
// implementations; there is no separate resource to release beyond
// the connection itself.
func (t *connTransport) Close() error {
	return t.Disconnect()
}

// attach starts the poller goroutine over an already-established conn
// and transitions to Connected, firing onConnected.
func (t *connTransport) attach(conn net.Conn) {
	t.mu.Lock()
	t.conn = conn
	t.state = Connected
	cb := t.onConnected
	t.mu.Unlock()

	go t.pollLoop(conn)

	if cb != nil {
		cb()
	}
}

func (t *connTransport) pollLoop(conn net.Conn) {
	buf := make([]byte, 64*1024)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			t.mu.Lock()
			current := t.conn == conn
			if current {
				t.pending = append(t.pending, buf[:n]...)
			}
			cb := t.onReadable
			t.mu.Unlock()

			if current && cb != nil {
				cb()
			}
		}
		if err != nil {
			t.mu.Lock()
			current := t.conn == conn
			if current {
				t.state = Unconnected
			}
			cb := t.onError
			t.mu.Unlock()

			if current && cb != nil {
				cb(err)
			}
			return
		}
	}
}
