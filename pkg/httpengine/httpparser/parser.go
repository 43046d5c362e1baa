// Package httpparser implements an incremental, pausable HTTP/1.1
// response parser: callers feed it arbitrary byte chunks and it
// invokes Handler hooks as soon as each piece of structure (status,
// header, body fragment, message end) is recognized.
package httpparser

import (
	"strconv"

	"github.com/wattclient/httpengine/pkg/httpengine/header"
	"github.com/wattclient/httpengine/pkg/httpengine/internal/bytesconv"
)

// Handler receives parse events. It mirrors flrdv-snowdrop-http's
// IProtocol shape, generalized from request parsing to response
// parsing: OnMethod/OnPath/OnProtocol become OnStatus, and the rest
// carry over unchanged in spirit.
type Handler interface {
	OnMessageBegin()
	OnStatus(statusCode int)
	OnHeaderField(field []byte)
	OnHeaderValue(value []byte)
	OnHeadersComplete()
	OnBody(chunk []byte)
	OnMessageComplete()
}

var (
	headerContentLength    = []byte("content-length")
	headerTransferEncoding = []byte("transfer-encoding")
	headerChunked          = []byte("chunked")
	headerConnection       = []byte("connection")
	headerClose            = []byte("close")
)

const (
	maxTokenLength     = 4096 // protocol / status / chunk-size token length cap
	maxHeaderLineBytes = 1 << 20
)

// unboundedContentLength marks a response body delimited by connection
// close rather than Content-Length or chunked framing.
const unboundedContentLength = -1

// Parser is a single-message-at-a-time, pause-between-messages
// HTTP/1.1 response parser. Zero value is not usable; use New.
type Parser struct {
	handler Handler

	state state

	tokenScratch []byte
	fieldScratch []byte
	valueScratch []byte

	headers    header.Collection
	content    []byte
	statusCode int

	contentLength     int64
	bodyBytesReceived int64
	chunked           bool
	chunkRemaining    int64
	inTrailer         bool
	connectionClose   bool

	err error
}

// New creates a Parser bound to handler and immediately fires
// OnMessageBegin, matching the teacher's eager
// NewHTTPRequestParser-calls-OnMessageBegin construction.
func New(handler Handler) *Parser {
	p := &Parser{handler: handler}
	p.beginMessage()
	return p
}

// SetHandler replaces the handler. Safe to call between messages.
func (p *Parser) SetHandler(h Handler) {
	p.handler = h
}

// Err returns the parse error that killed the parser, if any.
func (p *Parser) Err() error {
	return p.err
}

// StatusCode returns the status code of the current or most recently
// completed message. Valid once OnHeadersComplete has fired.
func (p *Parser) StatusCode() int {
	return p.statusCode
}

// Headers returns the header collection committed so far for the
// current message.
func (p *Parser) Headers() header.Collection {
	return p.headers
}

// ConnectionClose reports whether the most recently parsed response
// carried "Connection: close".
func (p *Parser) ConnectionClose() bool {
	return p.connectionClose
}

// Content returns the body bytes accumulated so far without draining
// them; see ConsumeContent to drain.
func (p *Parser) Content() []byte {
	return p.content
}

// ConsumeContent moves the accumulated body out, leaving the parser's
// content buffer empty but otherwise usable for subsequent chunks.
func (p *Parser) ConsumeContent() []byte {
	out := p.content
	p.content = nil
	return out
}

// Clear re-initializes the parser for a fresh response, dropping
// headers and content, and fires a fresh OnMessageBegin. Unlike the
// transparent pause→resume transition on the next Inject, Clear is an
// explicit caller-initiated reset (used after a parse error, or to
// reuse the parser for an unrelated connection).
func (p *Parser) Clear() {
	p.err = nil
	p.beginMessage()
}

func (p *Parser) beginMessage() {
	p.state = stateStatusProtocol
	p.tokenScratch = p.tokenScratch[:0]
	p.fieldScratch = p.fieldScratch[:0]
	p.valueScratch = p.valueScratch[:0]
	p.headers = nil
	p.content = nil
	p.statusCode = 0
	p.contentLength = 0
	p.bodyBytesReceived = 0
	p.chunked = false
	p.chunkRemaining = 0
	p.inTrailer = false
	p.connectionClose = false

	if p.handler != nil {
		p.handler.OnMessageBegin()
	}
}

// Inject feeds data into the parser and returns the number of bytes
// consumed before the parser paused (message complete) or hit a dead
// end (parse error). consumed < len(data) is normal: it means the
// message ended mid-buffer and the caller should decide what to do
// with the remainder (e.g. a 100-Continue followed immediately by the
// real response).
func (p *Parser) Inject(data []byte) int {
	if p.state == stateDead || len(data) == 0 {
		return 0
	}
	if p.state == statePaused {
		p.beginMessage()
	}

	total := 0
	for total < len(data) {
		switch p.state {
		case stateBody:
			n, done := p.feedBody(data[total:])
			total += n
			if done {
				p.completeMessage()
				return total
			}
			if n == 0 {
				// Nothing consumed and not done: only possible if the
				// slice was empty, which the loop condition excludes.
				return total
			}

		case stateBodyChunkData:
			n, done := p.feedChunkData(data[total:])
			total += n
			if done {
				p.state = stateBodyChunkDataCR
			}
			if n == 0 {
				return total
			}

		default:
			c := data[total]
			total++
			if stop := p.stepByte(c); stop {
				return total
			}
		}
	}
	return total
}

// InjectEOF signals end of stream, completing a connection-close-
// delimited body cleanly.
func (p *Parser) InjectEOF() {
	if p.state == stateBody && p.contentLength == unboundedContentLength {
		p.completeMessage()
	}
}

func (p *Parser) fail(err error) {
	p.err = err
	p.state = stateDead
	p.tokenScratch = nil
	p.fieldScratch = nil
	p.valueScratch = nil
}

func (p *Parser) completeMessage() {
	if p.handler != nil {
		p.handler.OnMessageComplete()
	}
	p.state = statePaused
}

// stepByte advances the status-line/header state machine by one byte.
// It returns true when the caller should stop feeding further bytes
// this Inject call (either the parser just paused on message
// completion, or it died on a parse error).
func (p *Parser) stepByte(c byte) bool {
	switch p.state {
	case stateStatusProtocol:
		switch c {
		case ' ':
			p.state = stateStatusCode
			p.tokenScratch = p.tokenScratch[:0]
			return false
		case '\r', '\n':
			p.fail(ErrMalformedStatusLine)
			return true
		default:
			return p.growToken(c, ErrMalformedStatusLine)
		}

	case stateStatusCode:
		switch {
		case c == ' ':
			code, ok := bytesconv.ParseInt(p.tokenScratch)
			if !ok || len(p.tokenScratch) != 3 {
				p.fail(ErrMalformedStatusLine)
				return true
			}
			p.statusCode = code
			p.tokenScratch = p.tokenScratch[:0]
			p.state = stateStatusReason
			if p.handler != nil {
				p.handler.OnStatus(p.statusCode)
			}
			return false
		case c == '\r':
			if !p.finishStatusCode() {
				return true
			}
			p.state = stateStatusLineCR
			return false
		case c == '\n':
			if !p.finishStatusCode() {
				return true
			}
			p.state = stateHeaderLineStart
			return false
		default:
			return p.growToken(c, ErrMalformedStatusLine)
		}

	case stateStatusReason:
		switch c {
		case '\r':
			p.state = stateStatusLineCR
		case '\n':
			p.state = stateHeaderLineStart
		default:
			// reason phrase is discarded per the no-reason-phrase-capture
			// contract; nothing to accumulate.
		}
		return false

	case stateStatusLineCR:
		if c != '\n' {
			p.fail(ErrMalformedStatusLine)
			return true
		}
		p.state = stateHeaderLineStart
		return false

	case stateHeaderLineStart:
		switch c {
		case '\r':
			p.state = stateEndCR
		case '\n':
			return p.endHeaderBlock()
		default:
			p.fieldScratch = append(p.fieldScratch[:0], c)
			p.state = stateHeaderKey
		}
		return false

	case stateHeaderKey:
		switch {
		case c == ':':
			if len(p.fieldScratch) == 0 {
				p.fail(ErrMalformedHeader)
				return true
			}
			if p.handler != nil {
				p.handler.OnHeaderField(p.fieldScratch)
			}
			p.valueScratch = p.valueScratch[:0]
			p.state = stateHeaderColon
		case c == '\r' || c == '\n':
			p.fail(ErrMalformedHeader)
			return true
		default:
			p.fieldScratch = append(p.fieldScratch, c)
			if len(p.fieldScratch) > maxHeaderLineBytes {
				p.fail(ErrMalformedHeader)
				return true
			}
		}
		return false

	case stateHeaderColon:
		p.state = stateHeaderValue
		if c == ' ' {
			return false
		}
		fallthrough

	case stateHeaderValue:
		switch c {
		case '\r':
			p.state = stateHeaderValueCR
		case '\n':
			return p.endHeaderLine()
		default:
			p.valueScratch = append(p.valueScratch, c)
			if len(p.valueScratch) > maxHeaderLineBytes {
				p.fail(ErrMalformedHeader)
				return true
			}
		}
		return false

	case stateHeaderValueCR:
		if c != '\n' {
			p.fail(ErrMalformedHeader)
			return true
		}
		return p.endHeaderLine()

	case stateEndCR:
		if c != '\n' {
			p.fail(ErrMalformedHeader)
			return true
		}
		return p.endHeaderBlock()

	case stateBodyChunkSize:
		switch c {
		case '\r':
			return false
		case '\n':
			return p.beginChunk()
		default:
			return p.growToken(c, ErrInvalidChunkSize)
		}

	case stateBodyChunkDataCR:
		if c != '\r' {
			p.fail(ErrMalformedHeader)
			return true
		}
		p.state = stateBodyChunkDataLF
		return false

	case stateBodyChunkDataLF:
		if c != '\n' {
			p.fail(ErrMalformedHeader)
			return true
		}
		p.state = stateBodyChunkSize
		p.tokenScratch = p.tokenScratch[:0]
		return false

	default:
		return false
	}
}

func (p *Parser) growToken(c byte, onOverflow error) bool {
	p.tokenScratch = append(p.tokenScratch, c)
	if len(p.tokenScratch) > maxTokenLength {
		p.fail(onOverflow)
		return true
	}
	return false
}

func (p *Parser) finishStatusCode() bool {
	code, ok := bytesconv.ParseInt(p.tokenScratch)
	if !ok || len(p.tokenScratch) != 3 {
		p.fail(ErrMalformedStatusLine)
		return false
	}
	p.statusCode = code
	p.tokenScratch = p.tokenScratch[:0]
	if p.handler != nil {
		p.handler.OnStatus(p.statusCode)
	}
	return true
}

// endHeaderLine commits the just-completed (field, value) pair and
// inspects it for the headers the body-delimitation logic and
// connection-reuse decision depend on.
func (p *Parser) endHeaderLine() bool {
	if p.handler != nil {
		p.handler.OnHeaderValue(p.valueScratch)
	}

	name := append([]byte(nil), p.fieldScratch...)
	value := append([]byte(nil), p.valueScratch...)

	if p.inTrailer {
		p.headers = append(p.headers, header.Header{Name: name, Value: value})
		p.state = stateHeaderLineStart
		return false
	}

	p.headers = append(p.headers, header.Header{Name: name, Value: value})

	if header.EqualFold(name, headerContentLength) {
		n, ok := bytesconv.ParseInt(value)
		if !ok {
			p.fail(ErrInvalidContentLength)
			return true
		}
		p.contentLength = int64(n)
	} else if header.EqualFold(name, headerTransferEncoding) {
		p.chunked = header.EqualFold(value, headerChunked)
	} else if header.EqualFold(name, headerConnection) {
		p.connectionClose = header.EqualFold(value, headerClose)
	}

	p.state = stateHeaderLineStart
	return false
}

// endHeaderBlock is reached on the blank line that ends either the
// header block or, when inTrailer, a chunked body's trailer block.
func (p *Parser) endHeaderBlock() bool {
	if p.inTrailer {
		p.completeMessage()
		return true
	}

	if p.handler != nil {
		p.handler.OnHeadersComplete()
	}

	switch {
	case isBodylessStatus(p.statusCode):
		p.completeMessage()
		return true
	case p.chunked:
		p.state = stateBodyChunkSize
		p.tokenScratch = p.tokenScratch[:0]
		return false
	case p.contentLength > 0:
		p.state = stateBody
		return false
	case p.hasExplicitZeroLength():
		p.completeMessage()
		return true
	default:
		// No Content-Length, no chunked framing: delimited by
		// connection close.
		p.contentLength = unboundedContentLength
		p.state = stateBody
		return false
	}
}

func (p *Parser) hasExplicitZeroLength() bool {
	return p.headers.Has(headerContentLength) && p.contentLength == 0
}

// isBodylessStatus reports whether status is one of the HTTP/1.1
// status codes that MUST NOT carry a message body, overriding any
// Content-Length or Transfer-Encoding present. 1xx (notably 100
// Continue) is the case this engine actually relies on.
func isBodylessStatus(status int) bool {
	return status/100 == 1 || status == 204 || status == 304
}

func (p *Parser) feedBody(data []byte) (consumed int, done bool) {
	if p.contentLength == unboundedContentLength {
		if len(data) > 0 {
			p.content = append(p.content, data...)
			if p.handler != nil {
				p.handler.OnBody(data)
			}
		}
		return len(data), false
	}

	remaining := p.contentLength - p.bodyBytesReceived
	n := int64(len(data))
	if n > remaining {
		n = remaining
	}
	if n < 0 {
		n = 0
	}

	if n > 0 {
		chunk := data[:n]
		p.content = append(p.content, chunk...)
		p.bodyBytesReceived += n
		if p.handler != nil {
			p.handler.OnBody(chunk)
		}
	}

	return int(n), p.bodyBytesReceived >= p.contentLength
}

func (p *Parser) beginChunk() bool {
	size, err := strconv.ParseInt(string(p.tokenScratch), 16, 63)
	if err != nil {
		p.fail(ErrInvalidChunkSize)
		return true
	}

	p.tokenScratch = p.tokenScratch[:0]

	if size == 0 {
		p.inTrailer = true
		p.state = stateHeaderLineStart
		return false
	}

	p.chunkRemaining = size
	p.state = stateBodyChunkData
	return false
}

func (p *Parser) feedChunkData(data []byte) (consumed int, done bool) {
	n := int64(len(data))
	if n > p.chunkRemaining {
		n = p.chunkRemaining
	}

	if n > 0 {
		chunk := data[:n]
		p.content = append(p.content, chunk...)
		p.chunkRemaining -= n
		if p.handler != nil {
			p.handler.OnBody(chunk)
		}
	}

	return int(n), p.chunkRemaining == 0
}
