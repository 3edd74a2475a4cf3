package httpproto

import (
	"bytes"
	"testing"
)

func buildResponse(body string) []byte {
	resp := &Response{Code: 200, Reason: "OK", Version: HTTP11, Body: []byte(body)}
	resp.Headers.Add("Content-Type", "text/plain")
	return SerializeResponse(resp)
}

func TestResponseStreamFeedSingleResponse(t *testing.T) {
	var s ResponseStream
	var got []byte
	s.Feed(buildResponse("97"), func(body []byte) bool {
		got = body
		return true
	})
	if string(got) != "97" {
		t.Errorf("collected body = %q, want %q", got, "97")
	}
}

func TestResponseStreamFeedAcrossFragments(t *testing.T) {
	wire := buildResponse("hello world")
	var s ResponseStream
	var got []byte
	for split := 1; split < len(wire); split++ {
		s = ResponseStream{}
		got = nil
		s.Feed(wire[:split], func(body []byte) bool { got = body; return true })
		s.Feed(wire[split:], func(body []byte) bool { got = body; return true })
		if !bytes.Equal(got, []byte("hello world")) {
			t.Fatalf("split=%d collected %q, want %q", split, got, "hello world")
		}
	}
}

func TestResponseStreamFeedPipelinedResponses(t *testing.T) {
	wire := append(buildResponse("a"), buildResponse("bb")...)
	var s ResponseStream
	var got []string
	s.Feed(wire, func(body []byte) bool {
		got = append(got, string(body))
		return true
	})
	if len(got) != 2 || got[0] != "a" || got[1] != "bb" {
		t.Errorf("collected = %v, want [a bb]", got)
	}
}

func TestResponseStreamCollectFalseStopsEarly(t *testing.T) {
	wire := append(buildResponse("a"), buildResponse("b")...)
	var s ResponseStream
	count := 0
	s.Feed(wire, func(body []byte) bool {
		count++
		return false
	})
	if count != 1 {
		t.Errorf("collect was invoked %d times, want 1 (should stop after returning false)", count)
	}
}
