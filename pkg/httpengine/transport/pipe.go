package transport

import "net"

// Pipe is an in-memory Transport for tests, backed by net.Pipe. The
// client side is wrapped by Pipe itself; NewPipe also returns the
// server-side net.Conn so a test can act as the peer (read the
// request, write a canned response) without opening a real socket.
type Pipe struct {
	connTransport

	dialed net.Conn
}

// NewPipe creates a connected in-memory pipe. The returned net.Conn is
// the server end; call Connect on the returned *Pipe to attach its
// client end (host/port are ignored — there is nothing to dial).
func NewPipe() (*Pipe, net.Conn) {
	client, server := net.Pipe()
	return &Pipe{dialed: client}, server
}

// Connect attaches the pre-established client end of the pipe and
// fires OnConnected asynchronously, matching the async contract every
// other Transport implementation honors.
func (p *Pipe) Connect(host string, port uint16) error {
	p.mu.Lock()
	p.state = Connecting
	p.mu.Unlock()

	go p.attach(p.dialed)

	return nil
}
