package httpclient

import "github.com/wattclient/httpengine/pkg/httpengine/clienterr"

// clientHandler adapts httpparser.Handler's callback shape onto the
// engine's own event surface, filtering out the one event class the
// engine itself must never let upstream see: a 100 Continue interim
// response (spec.md §6, "swallowed by the engine and not surfaced
// upstream"). Kept as its own small type rather than methods directly
// on *Client so Client's public method set doesn't accidentally grow
// parser-internal hooks.
type clientHandler struct {
	c *Client
}

func (h *clientHandler) OnMessageBegin() {}

func (h *clientHandler) OnStatus(statusCode int) {}

func (h *clientHandler) OnHeaderField(field []byte) {}

func (h *clientHandler) OnHeaderValue(value []byte) {}

func (h *clientHandler) OnHeadersComplete() {
	c := h.c
	if c.parser.StatusCode()/100 == 1 {
		return
	}
	if c.OnHeadersReady != nil {
		c.OnHeadersReady(c.parser.StatusCode(), c.parser.Headers())
	}
}

func (h *clientHandler) OnBody(chunk []byte) {
	c := h.c
	if c.OnContentReady != nil {
		c.OnContentReady(chunk)
	}
}

func (h *clientHandler) OnMessageComplete() {
	c := h.c
	if c.parser.StatusCode()/100 == 1 {
		// Interim response: keep waiting for the real one on the
		// same connection, do not finish.
		c.state = AwaitingResponse
		return
	}

	if c.parser.ConnectionClose() {
		_ = c.transport.Disconnect()
	}

	c.finish(clienterr.New(clienterr.None))
}
