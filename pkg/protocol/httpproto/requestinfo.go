package httpproto

import (
	"github.com/intuitivelabs/bytescase"

	"github.com/yourusername/primeserver/pkg/protocol"
)

// Extension is the HTTP-specific companion to the generic 8-byte
// protocol.RequestInfo envelope: a version bit and the two connection
// flags derived from the Connection header, plus a response code slot.
// It has its own 3-byte encoding. The frontend server does not attach it
// to the envelope it forwards, so workers receive only the 8-byte
// RequestInfo.
type Extension struct {
	Version    Version
	KeepAlive  bool
	Close      bool
	StatusCode uint16 // written by the worker before replying, 0 until then
}

// Encode packs the extension into 3 bytes: 1 flag byte + 2 status bytes.
func (e Extension) Encode() []byte {
	var flags byte
	if e.Version == HTTP11 {
		flags |= 1 << 0
	}
	if e.KeepAlive {
		flags |= 1 << 1
	}
	if e.Close {
		flags |= 1 << 2
	}
	return []byte{flags, byte(e.StatusCode >> 8), byte(e.StatusCode)}
}

// DecodeExtension reads the 3-byte HTTP trailer following a RequestInfo.
func DecodeExtension(buf []byte) (Extension, error) {
	if len(buf) < 3 {
		return Extension{}, protocol.ErrShortRequestInfo
	}
	flags := buf[0]
	e := Extension{
		KeepAlive:  flags&(1<<1) != 0,
		Close:      flags&(1<<2) != 0,
		StatusCode: uint16(buf[1])<<8 | uint16(buf[2]),
	}
	if flags&(1<<0) != 0 {
		e.Version = HTTP11
	} else {
		e.Version = HTTP10
	}
	return e, nil
}

// ExtensionFor derives the connection-handling bits for req: HTTP/1.1
// defaults to keep-alive unless "Connection: close" is present; HTTP/1.0
// defaults to close unless "Connection: keep-alive" is present.
func ExtensionFor(req *Request) Extension {
	conn := req.Headers.Get("Connection")
	e := Extension{Version: req.Version}
	switch req.Version {
	case HTTP11:
		e.KeepAlive = !bytescase.CmpEq([]byte(conn), []byte("close"))
		e.Close = !e.KeepAlive
	default:
		e.KeepAlive = bytescase.CmpEq([]byte(conn), []byte("keep-alive"))
		e.Close = !e.KeepAlive
	}
	return e
}
