// Package httpclient implements the client engine: a single-threaded,
// event-driven state machine that connects, writes a request via
// httpwriter, and feeds response bytes to httpparser, surfacing
// headers/content/finished as callbacks on whichever task drains Poll.
package httpclient

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/wattclient/httpengine/pkg/httpengine/clienterr"
	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/httpparser"
	"github.com/wattclient/httpengine/pkg/httpengine/httpwriter"
	"github.com/wattclient/httpengine/pkg/httpengine/internal/urlx"
	"github.com/wattclient/httpengine/pkg/httpengine/transport"
)

var acceptHeaderName = []byte("Accept")
var acceptHeaderValue = []byte("*")

var (
	methodGET    = []byte("GET")
	methodHead   = []byte("HEAD")
	methodPost   = []byte("POST")
	methodPut    = []byte("PUT")
	methodDelete = []byte("DELETE")
)

// pendingRequest captures the in-flight submit's parameters; the
// engine holds at most one at a time per spec.md §3.
type pendingRequest struct {
	id      uuid.UUID
	method  []byte
	url     urlx.URL
	headers header.Collection
	body    []byte
}

// readBufPool pools the scratch buffers pump uses to drain the
// transport, the same grow-and-release discipline httpwriter applies
// to its own scratch buffer, backed by valyala/bytebufferpool instead
// of a hand-rolled free list.
var readBufPool bytebufferpool.Pool

// Client is the HTTP/1.1 client engine. The zero value is not usable;
// construct with New. Submit/Abort/Poll must all be called from the
// same goroutine — the engine does no internal locking of its own
// state, only of the small notification queue fed by the transport's
// private poller goroutine.
type Client struct {
	transport transport.Transport
	writer    *httpwriter.Writer
	parser    *httpparser.Parser

	state state

	pending *pendingRequest
	host    string
	port    uint16

	readBB                  *bytebufferpool.ByteBuffer
	readBufReleaseThreshold int

	responsePending bool
	lastErr         *clienterr.Error

	limiter *rate.Limiter
	tracer  trace.Tracer
	span    trace.Span
	logger  *slog.Logger

	notify chan struct{}
	evMu   sync.Mutex
	evQ    []event

	// OnHeadersReady fires once per non-interim response, after the
	// status line and header block are fully parsed.
	OnHeadersReady func(statusCode int, headers header.Collection)
	// OnContentReady fires zero or more times as body bytes arrive.
	OnContentReady func(chunk []byte)
	// OnFinished fires exactly once per accepted Submit, carrying the
	// terminal error kind (clienterr.None on success).
	OnFinished func(kind clienterr.Kind)
}

// New creates a Client bound to t. t's callbacks are overwritten by
// New — Client must own them exclusively.
func New(t transport.Transport, opts ...Option) *Client {
	c := &Client{
		transport:               t,
		writer:                  httpwriter.New(),
		readBufReleaseThreshold: defaultReadBufferReleaseThreshold,
		logger:                  slog.Default(),
		notify:                  make(chan struct{}, 1),
	}
	c.writer.SetTransport(t)
	c.parser = httpparser.New(&clientHandler{c: c})
	t.SetCallbacks(c.enqueueConnected, c.enqueueReadable, c.enqueueError)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Notify returns the channel that receives a value whenever a
// transport notification is queued. Callers that drive their own
// event loop select on this and call Poll when it fires; callers that
// just want synchronous behavior can ignore it and call Poll directly
// after any Submit (the Pipe transport in tests delivers its readable
// notification essentially immediately).
func (c *Client) Notify() <-chan struct{} {
	return c.notify
}

// State reports the engine's current position in the state machine.
func (c *Client) State() state {
	return c.state
}

// ResponsePending reports whether an accepted Submit is awaiting its
// finished event.
func (c *Client) ResponsePending() bool {
	return c.responsePending
}

// Error returns the terminal error kind of the most recently finished
// request, or clienterr.None.
func (c *Client) Error() clienterr.Kind {
	if c.lastErr == nil {
		return clienterr.None
	}
	return c.lastErr.Kind
}

// StatusCode returns the status code of the current or most recently
// completed response.
func (c *Client) StatusCode() int {
	return c.parser.StatusCode()
}

// Headers returns the header collection of the current or most
// recently completed response.
func (c *Client) Headers() header.Collection {
	return c.parser.Headers()
}

// ConsumeContent moves the accumulated body out of the parser,
// leaving it empty.
func (c *Client) ConsumeContent() []byte {
	return c.parser.ConsumeContent()
}

// Get submits a GET request with no body.
func (c *Client) Get(ctx context.Context, url urlx.URL, headers header.Collection) error {
	return c.Submit(ctx, methodGET, url, headers, nil)
}

// Head submits a HEAD request with no body.
func (c *Client) Head(ctx context.Context, url urlx.URL, headers header.Collection) error {
	return c.Submit(ctx, methodHead, url, headers, nil)
}

// Post submits a POST request with body.
func (c *Client) Post(ctx context.Context, url urlx.URL, headers header.Collection, body []byte) error {
	return c.Submit(ctx, methodPost, url, headers, body)
}

// Put submits a PUT request with body.
func (c *Client) Put(ctx context.Context, url urlx.URL, headers header.Collection, body []byte) error {
	return c.Submit(ctx, methodPut, url, headers, body)
}

// Delete submits a DELETE request with no body.
func (c *Client) Delete(ctx context.Context, url urlx.URL, headers header.Collection) error {
	return c.Submit(ctx, methodDelete, url, headers, nil)
}

// Submit accepts a request for the engine to carry out. Submitting
// while a response is already pending is programmer misuse per
// spec.md §7: it is logged and ignored, producing no finished event
// and leaving the in-flight request untouched.
func (c *Client) Submit(ctx context.Context, method []byte, url urlx.URL, headers header.Collection, body []byte) error {
	if c.responsePending {
		c.logger.Warn("httpclient: submit called while a response is pending", "method", string(method))
		return nil
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	id := uuid.New()

	if c.tracer != nil {
		_, span := c.tracer.Start(ctx, "httpclient.Submit",
			trace.WithAttributes(
				attribute.String("http.method", string(method)),
				attribute.String("http.host", url.Host),
				attribute.String("http.request_id", id.String()),
			))
		c.span = span
	}

	c.pending = &pendingRequest{
		id:      id,
		method:  append([]byte(nil), method...),
		url:     url,
		headers: headers,
		body:    body,
	}
	c.responsePending = true
	c.lastErr = nil

	sameAuthority := c.transport.State() == transport.Connected && url.Host == c.host && url.Port == c.port

	if sameAuthority {
		c.state = Sending
		c.doWrite()
		return nil
	}

	if c.transport.State() != transport.Unconnected {
		_ = c.transport.Disconnect()
	}

	c.host, c.port = url.Host, url.Port
	c.state = Connecting
	if err := c.transport.Connect(url.Host, url.Port); err != nil {
		c.finish(clienterr.Wrap(clienterr.NetworkError, err))
	}
	return nil
}

// Abort synchronously terminates the in-flight request, closing the
// transport and emitting finished(AbortedError) before returning. A
// no-op when no response is pending.
func (c *Client) Abort() {
	if !c.responsePending {
		return
	}
	_ = c.transport.Disconnect()
	c.parser.Clear()
	c.finish(clienterr.New(clienterr.AbortedError))
}

// Close tears the Client down unconditionally: it aborts any in-flight
// request (so a caller still gets its one finished event) and then
// closes the transport outright, unparking its private poller
// goroutine. Unlike Abort, Close acts whether or not a response is
// pending — a Client that finished its last request cleanly still
// holds an open connection and a parked poller goroutine otherwise.
// The Client must not be reused after Close.
func (c *Client) Close() error {
	if c.responsePending {
		c.Abort()
	}
	return c.transport.Close()
}

// Poll drains queued transport notifications and advances the state
// machine accordingly. Call it whenever Notify's channel fires, or
// in a tight loop for synchronous test usage.
func (c *Client) Poll() {
	for {
		e, ok := c.dequeue()
		if !ok {
			return
		}
		switch e.kind {
		case eventConnected:
			c.onTransportConnected()
		case eventReadable:
			c.onTransportReadable()
		case eventError:
			c.onTransportError(e.err)
		}
	}
}

func (c *Client) onTransportConnected() {
	if c.state != Connecting {
		return
	}
	c.state = Sending
	c.doWrite()
}

func (c *Client) doWrite() {
	req := c.pending
	finalHeaders := make(header.Collection, 0, len(req.headers)+1)
	finalHeaders = append(finalHeaders, header.Header{Name: acceptHeaderName, Value: acceptHeaderValue})
	finalHeaders = append(finalHeaders, req.headers...)

	if err := c.writer.Write(req.method, req.url.Target(), finalHeaders, req.body); err != nil {
		c.finish(clienterr.Wrap(clienterr.NetworkError, err))
		return
	}

	c.state = AwaitingResponse
}

func (c *Client) onTransportReadable() {
	if c.state != AwaitingResponse && c.state != Receiving {
		return
	}
	c.state = Receiving
	c.pump()
}

// pump drains every byte currently available on the transport,
// feeding it to the parser and re-injecting any remainder the parser
// didn't consume (the 100-Continue case) while a response is still
// pending.
func (c *Client) pump() {
	if c.readBB == nil {
		c.readBB = readBufPool.Get()
	}

	for {
		avail := c.transport.BytesAvailable()
		if avail == 0 {
			break
		}

		if cap(c.readBB.B) < avail {
			c.readBB.B = make([]byte, avail)
		} else {
			c.readBB.B = c.readBB.B[:avail]
		}

		n, err := c.transport.ReadInto(c.readBB.B)
		if err != nil {
			c.onTransportError(err)
			return
		}
		if n == 0 {
			break
		}

		c.feed(c.readBB.B[:n])
		if !c.responsePending {
			break
		}
	}

	c.releaseReadBuf()
}

// feed injects data into the parser, re-injecting any leftover bytes
// while a response is still pending (spec.md §4.5's "multi-message
// read handling" — the 100-Continue case).
func (c *Client) feed(data []byte) {
	for len(data) > 0 {
		consumed := c.parser.Inject(data)

		if err := c.parser.Err(); err != nil {
			c.finish(clienterr.Wrap(clienterr.ResponseInvalidError, err))
			return
		}

		if !c.responsePending {
			if consumed < len(data) {
				c.logger.Debug("httpclient: trailing bytes after finished ignored", "n", len(data)-consumed)
			}
			return
		}

		if consumed >= len(data) {
			return
		}
		data = data[consumed:]
	}
}

func (c *Client) onTransportError(err error) {
	if !c.responsePending {
		c.logger.Debug("httpclient: transport error while idle, absorbed", "err", err)
		_ = c.transport.Disconnect()
		return
	}

	// A response with no Content-Length and no chunked framing is
	// delimited by the connection closing, per spec.md §6 — the EOF
	// that just arrived as a transport error is exactly that
	// delimiter, not a failure, so give the parser a chance to
	// complete the message cleanly before classifying anything.
	c.parser.InjectEOF()
	if !c.responsePending {
		return
	}

	_ = c.transport.Disconnect()
	c.finish(clienterr.Wrap(classifyTransportError(err, c.state), err))
}

// finish emits exactly one finished event and resets engine state
// straight back to Idle so the next Submit can proceed; the engine is
// never left in the Finished state.
func (c *Client) finish(err *clienterr.Error) {
	if c.pending != nil && err != nil && err.Kind != clienterr.None {
		c.logger.Debug("httpclient: request finished with error", "request_id", c.pending.id, "kind", err.Kind)
	}

	c.lastErr = err
	c.responsePending = false
	c.pending = nil
	c.state = Idle

	kind := clienterr.None
	if err != nil {
		kind = err.Kind
	}

	if c.span != nil {
		if kind != clienterr.None {
			c.span.SetStatus(codes.Error, kind.String())
		}
		c.span.End()
		c.span = nil
	}

	if c.OnFinished != nil {
		c.OnFinished(kind)
	}
}

func (c *Client) releaseReadBuf() {
	if c.readBB == nil {
		return
	}
	if cap(c.readBB.B) > c.readBufReleaseThreshold {
		readBufPool.Put(c.readBB)
		c.readBB = nil
	} else {
		c.readBB.Reset()
	}
}

// classifyTransportError maps a raw transport error into the engine's
// taxonomy. A failure while still connecting can never be the peer
// closing an in-flight response, so it is always NetworkError; once
// connected, an EOF almost always means the peer closed its end.
func classifyTransportError(err error, s state) clienterr.Kind {
	if s == Connecting {
		return clienterr.NetworkError
	}
	if isRemoteClose(err) {
		return clienterr.RemoteHostClosedError
	}
	return clienterr.NetworkError
}
