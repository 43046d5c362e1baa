package httpparser

// state is the parser's current position in the HTTP/1.1 response
// grammar, status-line first rather than request-line first since
// this parser reads server responses.
//
// stateHeaderLineStart and stateEndCR each serve double duty for both
// the header block and a chunked body's trailer block; Parser.inTrailer
// tells them which side of the body they're on when a blank line is
// reached.
type state uint8

const (
	stateStatusProtocol state = iota
	stateStatusCode
	stateStatusReason
	stateStatusLineCR

	stateHeaderLineStart
	stateHeaderKey
	stateHeaderColon
	stateHeaderValue
	stateHeaderValueCR
	stateEndCR

	stateBody
	stateBodyChunkSize
	stateBodyChunkData
	stateBodyChunkDataCR
	stateBodyChunkDataLF

	statePaused
	stateDead
)
