package httpproto

import (
	"strings"
	"testing"

	"github.com/yourusername/primeserver/pkg/protocol"
)

func TestHTTPProtocolTimeoutIsGatewayTimeout(t *testing.T) {
	p := New(0)
	wire := string(p.Timeout(protocol.RequestInfo{}))
	if !strings.HasPrefix(wire, "HTTP/1.1 504") {
		t.Errorf("Timeout() = %q, want a 504 response", wire)
	}
}

func TestHTTPProtocolErrorResponseMapsStatus(t *testing.T) {
	p := New(0)
	wire := string(p.ErrorResponse(&httpError{413, errTokenTooLong}))
	if !strings.HasPrefix(wire, "HTTP/1.1 413") {
		t.Errorf("ErrorResponse() = %q, want a 413 response", wire)
	}
}

func TestHTTPProtocolSerializeVariants(t *testing.T) {
	p := New(0)
	if got := string(p.Serialize([]byte("raw"))); got != "raw" {
		t.Errorf("Serialize([]byte) = %q, want %q", got, "raw")
	}
	resp := &Response{Code: 200, Reason: "OK", Version: HTTP11}
	if got := string(p.Serialize(resp)); !strings.HasPrefix(got, "HTTP/1.1 200") {
		t.Errorf("Serialize(*Response) = %q, want a 200 status line", got)
	}
}

func TestHTTPProtocolDefaultsMaxRequestSize(t *testing.T) {
	p := New(0)
	if p.MaxRequestSize != defaultMaxRequestSize {
		t.Errorf("MaxRequestSize = %d, want default %d", p.MaxRequestSize, defaultMaxRequestSize)
	}
}
