package httpclient

// state is the client engine's position in the connect/write/read
// lifecycle for the current (if any) in-flight request.
type state int

const (
	// Idle means no request is pending; the transport may or may not
	// be connected.
	Idle state = iota
	// Connecting means a submit is waiting on the transport to connect.
	Connecting
	// Sending means the request is being handed to the writer.
	Sending
	// AwaitingResponse means the request has been written and the
	// client is waiting for the first byte of a response (or, after a
	// 100 Continue, waiting for the real response).
	AwaitingResponse
	// Receiving means response bytes have started arriving and are
	// being fed to the parser.
	Receiving
	// Finished means the in-flight request has terminated (success,
	// error, or abort) and finished has been emitted.
	Finished
)

func (s state) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Sending:
		return "Sending"
	case AwaitingResponse:
		return "AwaitingResponse"
	case Receiving:
		return "Receiving"
	case Finished:
		return "Finished"
	default:
		return "Unknown"
	}
}
