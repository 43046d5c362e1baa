package netaccess

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/transport"
)

func readConn(conn net.Conn, timeout time.Duration) []byte {
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	buf := make([]byte, 64*1024)
	n, _ := conn.Read(buf)
	return buf[:n]
}

func newTestManager(t *testing.T) (*Manager, chan net.Conn) {
	t.Helper()
	serverConns := make(chan net.Conn, 8)
	m := NewManager(WithTransportFactory(func() transport.Transport {
		p, server := transport.NewPipe()
		serverConns <- server
		return p
	}))
	t.Cleanup(m.Close)
	return m, serverConns
}

func TestManagerGetSurfacesSetCookieAndSendsItNextTime(t *testing.T) {
	m, serverConns := newTestManager(t)

	// Both requests target the same authority, so the manager reuses a
	// single transport/connection across them: only one server conn
	// ever comes out of the factory.
	serverCh := make(chan net.Conn, 1)
	go func() {
		server := <-serverConns
		serverCh <- server
		readConn(server, 2*time.Second)
		_, _ = server.Write([]byte(
			"HTTP/1.1 200 OK\r\nSet-Cookie: session=abc123\r\nContent-Length: 0\r\n\r\n"))
	}()

	res, err := m.Get(context.Background(), "http://h:80/first", nil)
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	server := <-serverCh

	reqCh := make(chan []byte, 1)
	go func() {
		reqCh <- readConn(server, 2*time.Second)
		_, _ = server.Write([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
	}()

	if _, err := m.Get(context.Background(), "http://h:80/second", nil); err != nil {
		t.Fatalf("second Get: %v", err)
	}

	select {
	case req := <-reqCh:
		if !containsHeader(req, "Cookie: session=abc123") {
			t.Fatalf("second request did not carry the stored cookie: %q", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for second request")
	}
}

func TestManagerSurfacesLocation(t *testing.T) {
	m, serverConns := newTestManager(t)

	go func() {
		server := <-serverConns
		readConn(server, 2*time.Second)
		_, _ = server.Write([]byte(
			"HTTP/1.1 302 Found\r\nLocation: http://h:80/new\r\nContent-Length: 0\r\n\r\n"))
	}()

	res, err := m.Get(context.Background(), "http://h:80/old", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.Location != "http://h:80/new" {
		t.Fatalf("Location = %q, want http://h:80/new", res.Location)
	}
}

func TestManagerReusesClientPerAuthority(t *testing.T) {
	m, serverConns := newTestManager(t)

	go func() {
		server := <-serverConns
		for i := 0; i < 2; i++ {
			readConn(server, 2*time.Second)
			_, _ = server.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
		}
	}()

	if _, err := m.Get(context.Background(), "http://h:80/a", nil); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if _, err := m.Get(context.Background(), "http://h:80/b", nil); err != nil {
		t.Fatalf("second get: %v", err)
	}

	if len(serverConns) != 0 {
		t.Fatalf("expected both requests to share one transport, got %d pending server conns", len(serverConns))
	}
}

func TestManagerCloseTearsDownIdleClient(t *testing.T) {
	m, serverConns := newTestManager(t)

	serverCh := make(chan net.Conn, 1)
	go func() {
		server := <-serverConns
		serverCh <- server
		readConn(server, 2*time.Second)
		_, _ = server.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	}()

	res, err := m.Get(context.Background(), "http://h:80/p", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if res.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	server := <-serverCh

	// The request finished cleanly, so the client's connection is kept
	// open for reuse. Close must still tear it down: m.Close() used to
	// call only Client.Abort, a no-op once responsePending is false,
	// which left this exact connection (and its poller goroutine) open.
	m.Close()

	_ = server.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := server.Write([]byte("x")); err == nil {
		t.Fatal("expected the peer side to observe the connection closed after Manager.Close")
	}
}

func TestManagerRejectsUnsupportedScheme(t *testing.T) {
	m, _ := newTestManager(t)

	if _, err := m.Get(context.Background(), "ftp://h/x", nil); err != ErrUnsupportedScheme {
		t.Fatalf("err = %v, want ErrUnsupportedScheme", err)
	}
}

func TestManagerForwardsCallerHeaders(t *testing.T) {
	m, serverConns := newTestManager(t)

	reqCh := make(chan []byte, 1)
	go func() {
		server := <-serverConns
		reqCh <- readConn(server, 2*time.Second)
		_, _ = server.Write([]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"))
	}()

	var h header.Collection
	h.AddString("X-Trace", "abc")

	if _, err := m.Get(context.Background(), "http://h:80/p", h); err != nil {
		t.Fatalf("get: %v", err)
	}

	select {
	case req := <-reqCh:
		if !containsHeader(req, "X-Trace: abc") {
			t.Fatalf("request missing caller header: %q", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for request")
	}
}

func containsHeader(req []byte, want string) bool {
	return strings.Contains(string(req), want)
}
