package transport

import (
	"net"
	"strconv"
	"time"
)

// TCPOption configures a TCP transport at construction time.
type TCPOption func(*TCP)

// WithDialTimeout bounds how long Connect's internal dial may take.
func WithDialTimeout(d time.Duration) TCPOption {
	return func(t *TCP) { t.dialTimeout = d }
}

// WithNoDelay toggles TCP_NODELAY (disabling Nagle's algorithm) on
// connect. Enabled by default.
func WithNoDelay(enabled bool) TCPOption {
	return func(t *TCP) { t.noDelay = enabled }
}

// WithRecvBuffer sets SO_RCVBUF in bytes. Zero leaves the OS default.
func WithRecvBuffer(bytes int) TCPOption {
	return func(t *TCP) { t.recvBuffer = bytes }
}

// WithSendBuffer sets SO_SNDBUF in bytes. Zero leaves the OS default.
func WithSendBuffer(bytes int) TCPOption {
	return func(t *TCP) { t.sendBuffer = bytes }
}

// TCP is a Transport backed by a real net.Conn over TCP.
type TCP struct {
	connTransport

	dialTimeout time.Duration
	noDelay     bool
	recvBuffer  int
	sendBuffer  int
}

// NewTCP creates a TCP transport. TCP_NODELAY is on by default, since
// an HTTP/1.1 request/response exchange is latency-sensitive and
// Nagle's algorithm only helps bulk streaming.
func NewTCP(opts ...TCPOption) *TCP {
	t := &TCP{dialTimeout: 10 * time.Second, noDelay: true}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Connect dials host:port on an internal goroutine; completion is
// reported via the OnConnected/OnError callbacks, never by blocking
// this call.
func (t *TCP) Connect(host string, port uint16) error {
	t.mu.Lock()
	t.state = Connecting
	t.mu.Unlock()

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))

	go func() {
		conn, err := net.DialTimeout("tcp", addr, t.dialTimeout)
		if err != nil {
			t.mu.Lock()
			t.state = Unconnected
			cb := t.onError
			t.mu.Unlock()

			if cb != nil {
				cb(err)
			}
			return
		}

		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if t.noDelay {
				_ = tcpConn.SetNoDelay(true)
			}
			if t.recvBuffer > 0 {
				_ = tcpConn.SetReadBuffer(t.recvBuffer)
			}
			if t.sendBuffer > 0 {
				_ = tcpConn.SetWriteBuffer(t.sendBuffer)
			}
		}

		t.attach(conn)
	}()

	return nil
}
