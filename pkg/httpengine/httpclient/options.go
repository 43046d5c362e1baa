package httpclient

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

// defaultReadBufferReleaseThreshold mirrors httpwriter's scratch-release
// policy on the read side: a growable buffer that gets freed rather
// than merely truncated once it has grown past this size, so one
// large response doesn't inflate idle memory for the life of the
// client.
const defaultReadBufferReleaseThreshold = 128 * 1024

// Option configures a Client at construction time.
type Option func(*Client)

// WithReadBufferReleaseThreshold overrides the capacity above which the
// read buffer is freed (rather than truncated) between responses.
func WithReadBufferReleaseThreshold(n int) Option {
	return func(c *Client) {
		c.readBufReleaseThreshold = n
	}
}

// WithRateLimiter attaches a token-bucket limiter that Submit waits on
// before writing a request, bounding outbound request rate on this
// client. Nil (the default) means unlimited.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithTracer attaches an OpenTelemetry tracer; when set, Submit opens a
// span covering connect-through-finished for the request and records
// the outcome on it.
func WithTracer(t trace.Tracer) Option {
	return func(c *Client) {
		c.tracer = t
	}
}

// WithLogger overrides the logger used for absorbed/idle-time errors
// and other diagnostic-only events. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
