package httpproto

import (
	"github.com/yourusername/primeserver/pkg/protocol"
)

// HTTPProtocol adapts the HTTP parser/serializer pair to the frontend
// server's protocol.Protocol interface.
type HTTPProtocol struct {
	MaxRequestSize int
}

// New returns an HTTPProtocol with the given per-request size ceiling.
func New(maxRequestSize int) *HTTPProtocol {
	if maxRequestSize <= 0 {
		maxRequestSize = defaultMaxRequestSize
	}
	return &HTTPProtocol{MaxRequestSize: maxRequestSize}
}

func (p *HTTPProtocol) NewSession() protocol.Session {
	return NewSessionWithLimit(p.MaxRequestSize)
}

// Serialize accepts either *Response (a worker's reply) or []byte (already
// wire-ready bytes, e.g. a fixed error response) and returns wire bytes.
func (p *HTTPProtocol) Serialize(resp interface{}) []byte {
	switch v := resp.(type) {
	case *Response:
		return SerializeResponse(v)
	case []byte:
		return v
	default:
		return ErrorResponse(500)
	}
}

func (p *HTTPProtocol) Timeout(info protocol.RequestInfo) []byte {
	return ErrorResponse(504)
}

// ErrorResponse maps a Feed failure to the fixed status table via StatusOf.
func (p *HTTPProtocol) ErrorResponse(err error) []byte {
	return ErrorResponse(StatusOf(err))
}

func (p *HTTPProtocol) NewResponseCollector() protocol.ResponseCollector {
	return &ResponseStream{}
}
