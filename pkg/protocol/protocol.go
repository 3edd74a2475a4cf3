// Package protocol defines the tagged-variant surface the frontend server
// is parameterized over, so the server never branches on HTTP vs netstring
// directly. See httpproto and netstring for the two implementations.
package protocol

import "encoding/binary"

// Request is the parsed unit of work a protocol hands to a worker pool.
// Implementations embed protocol-specific fields; the server only cares
// about Bytes (the wire-ready payload to forward downstream).
type Request interface {
	// Bytes returns the request re-serialized for forwarding to a worker.
	Bytes() []byte
}

// Protocol is the common interface the frontend server is parameterized
// over. A Protocol instance holds no per-connection state; session state
// lives in the Session that NewSession returns.
type Protocol interface {
	// NewSession returns a fresh, empty streaming parser state for one
	// client connection.
	NewSession() Session
	// Serialize renders a response for the wire.
	Serialize(resp interface{}) []byte
	// Timeout synthesizes the bytes for a request that expired waiting
	// for a worker response.
	Timeout(info RequestInfo) []byte
	// ErrorResponse synthesizes the bytes to send a client when Feed
	// returns err. A protocol with no error framing (netstring) returns
	// nil, telling the server to just close the connection.
	ErrorResponse(err error) []byte
	// NewResponseCollector returns a fresh client-side sub-parser that
	// turns streamed response bytes back into discrete payloads. It is a
	// distinct grammar from Session/Feed because a response (status line,
	// or none at all) differs from a request.
	NewResponseCollector() ResponseCollector
}

// ResponseCollector is the batching client's per-connection sub-parser for
// response bytes arriving in arbitrary fragments.
type ResponseCollector interface {
	// Feed appends chunk and invokes collect once per complete response
	// body found; collect returning false stops processing further
	// responses buffered from this call.
	Feed(chunk []byte, collect func(body []byte) (more bool))
}

// Session is a per-connection resumable parser. Feed may be called any
// number of times with arbitrary byte spans as they arrive on the wire.
type Session interface {
	// Feed consumes buf, appending to any partial state left over from a
	// previous call, and returns every request completed by the new
	// bytes. On protocol violation it returns an error alongside whatever
	// requests it managed to complete before the violation; the caller
	// must treat the session as dead after an error.
	Feed(buf []byte) (requests []FedRequest, err error)
}

// FedRequest pairs a parsed request with the serialized bytes the server
// should forward to a worker (the two differ for HTTP, where the worker
// receives a re-serialized byte string, not a struct).
type FedRequest struct {
	Bytes []byte
	// Parsed carries the protocol's own request value (e.g. *httpproto.Request)
	// for callers that need structured access; the frontend's health-check
	// matcher inspects it instead of re-parsing.
	Parsed interface{}
}

// RequestInfo is the fixed 8-byte envelope that flows with every request
// from frontend to proxy to worker and back. id occupies the first 4
// bytes and timestamp the next 4, matching the wire layout exactly;
// protocol-specific flags (HTTP version/connection bits, response code)
// are packed into a trailing extension a protocol may attach separately.
type RequestInfo struct {
	ID        uint32
	Timestamp uint32
}

// Encode writes the 8-byte wire form: id then timestamp, big-endian.
func (ri RequestInfo) Encode() []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint32(buf[0:4], ri.ID)
	binary.BigEndian.PutUint32(buf[4:8], ri.Timestamp)
	return buf
}

// Key64 packs id and timestamp into the single 64-bit value used as the
// interrupt key and as the server's requests-map key.
func (ri RequestInfo) Key64() uint64 {
	return uint64(ri.ID)<<32 | uint64(ri.Timestamp)
}

// DecodeRequestInfo reads the first 8 bytes of buf as a RequestInfo.
func DecodeRequestInfo(buf []byte) (RequestInfo, error) {
	if len(buf) < 8 {
		return RequestInfo{}, ErrShortRequestInfo
	}
	return RequestInfo{
		ID:        binary.BigEndian.Uint32(buf[0:4]),
		Timestamp: binary.BigEndian.Uint32(buf[4:8]),
	}, nil
}

// KeyFromParts packs an id/timestamp pair the same way RequestInfo.Key64
// does, for callers that hold the raw pair rather than a RequestInfo.
func KeyFromParts(id, timestamp uint32) uint64 {
	return uint64(id)<<32 | uint64(timestamp)
}
