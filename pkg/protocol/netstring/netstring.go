// Package netstring implements the lightweight `<len>:<body>,` wire
// protocol used by the non-HTTP frontend: one entity per complete frame,
// no headers, no method/version negotiation.
package netstring

import (
	"bytes"
	"strconv"

	"github.com/yourusername/primeserver/pkg/protocol"
)

const defaultMaxEntitySize = 1 << 20 // 1MiB

// Entity is a parsed netstring body.
type Entity struct {
	Body []byte
}

// Bytes implements protocol.Request.
func (e *Entity) Bytes() []byte { return Serialize(e.Body) }

// Serialize renders body in `<len>:<body>,` form.
func Serialize(body []byte) []byte {
	out := make([]byte, 0, len(body)+12)
	out = append(out, []byte(strconv.Itoa(len(body)))...)
	out = append(out, ':')
	out = append(out, body...)
	out = append(out, ',')
	return out
}

// Session is the resumable netstring parser: it holds whatever prefix of
// the next `<len>:<body>,` frame has arrived so far.
type Session struct {
	buf         []byte
	maxEntity   int
}

// NewSession returns a parser with the default per-entity size ceiling.
func NewSession() *Session { return &Session{maxEntity: defaultMaxEntitySize} }

// NewSessionWithLimit returns a parser capped at maxEntitySize bytes per entity.
func NewSessionWithLimit(maxEntitySize int) *Session {
	if maxEntitySize <= 0 {
		maxEntitySize = defaultMaxEntitySize
	}
	return &Session{maxEntity: maxEntitySize}
}

// Feed implements protocol.Session.
func (s *Session) Feed(chunk []byte) ([]protocol.FedRequest, error) {
	s.buf = append(s.buf, chunk...)
	var out []protocol.FedRequest
	for {
		colon := bytes.IndexByte(s.buf, ':')
		if colon < 0 {
			if len(s.buf) > 0 && (s.buf[0] < '0' || s.buf[0] > '9') {
				return out, protocol.ErrMalformedFraming
			}
			if len(s.buf) > 20 { // a decimal length field this long can't be real
				return out, protocol.ErrMalformedFraming
			}
			return out, nil
		}
		if colon == 0 {
			return out, protocol.ErrMalformedFraming // leading ':' is invalid
		}
		n, err := strconv.Atoi(string(s.buf[:colon]))
		if err != nil || n < 0 {
			return out, protocol.ErrMalformedFraming
		}
		if n > s.maxEntity {
			return out, protocol.ErrSizeExceeded
		}
		total := colon + 1 + n + 1 // len ':' body ','
		if len(s.buf) < total {
			return out, nil
		}
		if s.buf[colon+1+n] != ',' {
			return out, protocol.ErrMalformedFraming
		}
		body := append([]byte(nil), s.buf[colon+1:colon+1+n]...)
		s.buf = s.buf[total:]
		ent := &Entity{Body: body}
		out = append(out, protocol.FedRequest{Bytes: ent.Bytes(), Parsed: ent})
	}
}

// Protocol adapts the netstring parser/serializer to protocol.Protocol.
// There is no fixed error table for netstrings: a malformed frame just
// closes the connection, per the wire format's non-goal of error framing.
type Protocol struct {
	MaxEntitySize int
}

func New(maxEntitySize int) *Protocol { return &Protocol{MaxEntitySize: maxEntitySize} }

func (p *Protocol) NewSession() protocol.Session {
	return NewSessionWithLimit(p.MaxEntitySize)
}

func (p *Protocol) Serialize(resp interface{}) []byte {
	switch v := resp.(type) {
	case []byte:
		return Serialize(v)
	case *Entity:
		return Serialize(v.Body)
	default:
		return nil
	}
}

func (p *Protocol) Timeout(info protocol.RequestInfo) []byte {
	return Serialize(nil) // a zero-length entity, "0:,"
}

// ErrorResponse returns nil: netstrings carry no error framing, so a
// malformed frame just closes the connection.
func (p *Protocol) ErrorResponse(err error) []byte {
	return nil
}

func (p *Protocol) NewResponseCollector() protocol.ResponseCollector {
	return &responseCollector{session: NewSessionWithLimit(p.MaxEntitySize)}
}

// responseCollector adapts the request-grammar Session to response
// collection: netstrings have no separate response grammar, so parsing a
// response body is identical to parsing a request entity.
type responseCollector struct {
	session *Session
}

func (c *responseCollector) Feed(chunk []byte, collect func(body []byte) (more bool)) {
	fed, _ := c.session.Feed(chunk)
	for _, f := range fed {
		ent := f.Parsed.(*Entity)
		if !collect(ent.Body) {
			return
		}
	}
}
