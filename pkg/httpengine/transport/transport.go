// Package transport abstracts the byte-stream the client engine writes
// requests to and reads responses from: a real TCP socket in
// production, an in-memory pipe in tests. The engine never imports
// net directly.
package transport

import "fmt"

// ConnState is the connection lifecycle state a Transport reports
// through State.
type ConnState int

const (
	// Unconnected means Connect has not succeeded yet, or Close/
	// Disconnect has since been called.
	Unconnected ConnState = iota
	// Connecting means a Connect call is in flight.
	Connecting
	// Connected means the transport is ready for Write/ReadInto.
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Unconnected:
		return "Unconnected"
	case Connecting:
		return "Connecting"
	case Connected:
		return "Connected"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Transport is the byte-stream abstraction the client engine depends
// on. Implementations notify the owner asynchronously via the
// OnConnected/OnReadable/OnError callbacks rather than blocking the
// caller; Connect returns immediately, since every implementation in
// this module dials from a private goroutine and reports the outcome
// back through the callbacks.
//
// The engine calls exactly one Transport method at a time and never
// calls Write/ReadInto before Connect has reported success via
// OnConnected — implementations need not
// guard against concurrent calls from the owner, only against their
// own internal notification goroutine racing with a Close.
type Transport interface {
	// Connect establishes a connection to host:port. Host resolution and
	// dialing happen on an internal goroutine; completion is reported via
	// OnConnected or OnError, never by blocking this call.
	Connect(host string, port uint16) error

	// Write sends b to the peer. Only valid once State() == Connected.
	Write(b []byte) (int, error)

	// ReadInto reads already-available bytes into buf. Only valid after
	// OnReadable has fired; returns (0, nil) if nothing is currently
	// available.
	ReadInto(buf []byte) (int, error)

	// BytesAvailable reports how many bytes can currently be read without
	// blocking.
	BytesAvailable() int

	// Disconnect closes the connection but leaves the Transport reusable
	// for a subsequent Connect.
	Disconnect() error

	// Close releases all resources; the Transport must not be reused
	// after Close.
	Close() error

	// State reports the current connection lifecycle state.
	State() ConnState

	// SetCallbacks installs the notification hooks. OnConnected fires
	// once Connect succeeds; OnReadable fires whenever new bytes are
	// available to ReadInto; OnError fires on a connect or read
	// failure, after which the transport is already Unconnected. A
	// failed Write returns its error to the caller and does not fire
	// OnError.
	SetCallbacks(onConnected, onReadable func(), onError func(error))
}
