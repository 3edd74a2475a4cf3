package httpproto

import (
	"strconv"
	"strings"
	"testing"
)

func TestErrorResponseKnownStatuses(t *testing.T) {
	for code := range statusTable {
		wire := string(ErrorResponse(code))
		wantLine := "HTTP/1.1 " + strconv.Itoa(code)
		if !strings.HasPrefix(wire, wantLine) {
			t.Errorf("ErrorResponse(%d) = %q, want prefix %q", code, wire, wantLine)
		}
		if !strings.Contains(wire, "Access-Control-Allow-Origin: *") {
			t.Errorf("ErrorResponse(%d) missing CORS header", code)
		}
	}
}

func TestErrorResponseFallsBackTo500(t *testing.T) {
	wire := string(ErrorResponse(999))
	if !strings.HasPrefix(wire, "HTTP/1.1 500") {
		t.Errorf("ErrorResponse(999) = %q, want a 500 fallback", wire)
	}
}
