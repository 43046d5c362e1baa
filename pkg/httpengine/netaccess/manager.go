// Package netaccess implements the "network access manager" sketched
// as an out-of-scope collaborator interface in spec.md §6: it
// multiplexes one httpclient.Client per authority, injects cookies
// from a jar, surfaces Set-Cookie/Location, and maps the engine's
// error taxonomy into its own. Grounded directly on
// Pillow::NetworkAccessManager/Pillow::NetworkReply in
// original_source/pillowcore — the per-authority client-reuse map
// mirrors its _urlToClientsMap, simplified from a Qt erase-on-checkout/
// put-back-on-finished cycle to a held-for-the-call mutex per entry,
// since this module has no event loop of its own to hand the client
// back to between requests.
package netaccess

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/wattclient/httpengine/pkg/httpengine/clienterr"
	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/httpclient"
	"github.com/wattclient/httpengine/pkg/httpengine/internal/urlx"
	"github.com/wattclient/httpengine/pkg/httpengine/transport"
)

// Result is a completed request's outcome.
type Result struct {
	StatusCode int
	Headers    header.Collection
	Body       []byte
	// Location carries the response's Location header, if any — the
	// manager surfaces it but never follows it (spec.md §9's
	// out-of-scope-by-design redirect handling).
	Location string
}

var setCookieHeaderName = []byte("Set-Cookie")

// ManagerOption configures a Manager at construction time.
type ManagerOption func(*Manager)

// WithTransportFactory overrides how a Manager dials a fresh
// transport for a newly seen authority. Defaults to transport.NewTCP.
func WithTransportFactory(f func() transport.Transport) ManagerOption {
	return func(m *Manager) { m.newTransport = f }
}

// WithURLCacheSize overrides the capacity of the manager's URL cache.
func WithURLCacheSize(n int) ManagerOption {
	return func(m *Manager) { m.urlCache = urlx.NewCache(n) }
}

type clientEntry struct {
	mu     sync.Mutex
	client *httpclient.Client
}

// Manager multiplexes httpclient.Client instances keyed by authority
// (host:port) and adds cookie-jar and Location plumbing around the
// bare engine. Safe for concurrent use: requests to different
// authorities proceed concurrently, requests to the same authority
// serialize on that authority's client (the underlying engine allows
// only one in-flight request at a time).
type Manager struct {
	mu      sync.Mutex
	clients map[string]*clientEntry

	jar      *CookieJar
	urlCache *urlx.Cache

	newTransport func() transport.Transport
}

// NewManager creates a Manager with an empty cookie jar and no
// clients yet established.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		clients:      make(map[string]*clientEntry),
		jar:          NewCookieJar(),
		urlCache:     urlx.NewCache(urlx.DefaultCacheSize),
		newTransport: func() transport.Transport { return transport.NewTCP() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Do issues method against rawURL, injecting any jarred cookies for
// the target host and blocking until the engine's finished event
// fires. Only the "http" scheme is supported; anything else returns
// ErrUnsupportedScheme, per spec.md §6's "others fall through to a
// baseline implementation" — that baseline is the caller's job, not
// this manager's.
func (m *Manager) Do(ctx context.Context, method string, rawURL string, headers header.Collection, body []byte) (*Result, error) {
	if scheme := schemeOf(rawURL); scheme != "" && scheme != "http" {
		return nil, ErrUnsupportedScheme
	}

	target, err := m.urlCache.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("netaccess: %w", err)
	}

	entry := m.entryFor(target.Host, target.Port)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	c := entry.client

	outHeaders := headers.Clone()
	if cookies := m.jar.Cookies(target.Host); cookies != "" {
		outHeaders.AddString("Cookie", cookies)
	}

	var status int
	var respHeaders header.Collection
	var respBody []byte
	finished := false
	var finishedKind clienterr.Kind

	c.OnHeadersReady = func(s int, h header.Collection) {
		status = s
		respHeaders = h
	}
	c.OnContentReady = func(chunk []byte) {
		respBody = append(respBody, chunk...)
	}
	c.OnFinished = func(kind clienterr.Kind) {
		finished = true
		finishedKind = kind
	}

	if err := c.Submit(ctx, []byte(method), target, outHeaders, body); err != nil {
		return nil, err
	}

	for !finished {
		select {
		case <-c.Notify():
			c.Poll()
		case <-ctx.Done():
			c.Abort()
			return nil, ctx.Err()
		}
	}

	result := &Result{
		StatusCode: status,
		Headers:    respHeaders,
		Body:       respBody,
		Location:   respHeaders.GetString("Location"),
	}

	m.jar.Store(target.Host, setCookieValues(respHeaders))

	if finishedKind != clienterr.None {
		return result, fromEngineError(finishedKind, nil)
	}
	return result, nil
}

// Get is the GET convenience wrapper.
func (m *Manager) Get(ctx context.Context, rawURL string, headers header.Collection) (*Result, error) {
	return m.Do(ctx, "GET", rawURL, headers, nil)
}

// Post is the POST convenience wrapper.
func (m *Manager) Post(ctx context.Context, rawURL string, headers header.Collection, body []byte) (*Result, error) {
	return m.Do(ctx, "POST", rawURL, headers, body)
}

// Close tears down every client the manager has ever created,
// regardless of whether it still has a request pending — including
// authorities that already finished their last request and are just
// sitting on an idle, reusable connection, which Abort alone would
// leave open.
func (m *Manager) Close() {
	m.mu.Lock()
	entries := make([]*clientEntry, 0, len(m.clients))
	for _, e := range m.clients {
		entries = append(entries, e)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		_ = e.client.Close()
		e.mu.Unlock()
	}
}

func (m *Manager) entryFor(host string, port uint16) *clientEntry {
	authority := fmt.Sprintf("%s:%d", host, port)

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.clients[authority]; ok {
		return e
	}

	t := m.newTransport()
	e := &clientEntry{client: httpclient.New(t)}
	m.clients[authority] = e
	return e
}

func schemeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Scheme
}

func setCookieValues(h header.Collection) [][]byte {
	var out [][]byte
	for i := range h {
		if header.EqualFold(h[i].Name, setCookieHeaderName) {
			out = append(out, h[i].Value)
		}
	}
	return out
}
