package protocol

import "testing"

func TestRequestInfoEncodeDecodeRoundTrip(t *testing.T) {
	ri := RequestInfo{ID: 0xdeadbeef, Timestamp: 0x01020304}
	buf := ri.Encode()
	if len(buf) != 8 {
		t.Fatalf("Encode() length = %d, want 8", len(buf))
	}
	got, err := DecodeRequestInfo(buf)
	if err != nil {
		t.Fatalf("DecodeRequestInfo() error = %v", err)
	}
	if got != ri {
		t.Errorf("DecodeRequestInfo() = %+v, want %+v", got, ri)
	}
}

func TestDecodeRequestInfoShortBuffer(t *testing.T) {
	if _, err := DecodeRequestInfo([]byte{1, 2, 3}); err != ErrShortRequestInfo {
		t.Errorf("DecodeRequestInfo() error = %v, want %v", err, ErrShortRequestInfo)
	}
}

func TestKey64MatchesKeyFromParts(t *testing.T) {
	ri := RequestInfo{ID: 42, Timestamp: 1700000000}
	if got, want := ri.Key64(), KeyFromParts(ri.ID, ri.Timestamp); got != want {
		t.Errorf("Key64() = %d, KeyFromParts() = %d, want equal", got, want)
	}
}

func TestKey64Uniqueness(t *testing.T) {
	a := RequestInfo{ID: 1, Timestamp: 100}
	b := RequestInfo{ID: 1, Timestamp: 101}
	if a.Key64() == b.Key64() {
		t.Error("Key64() collided for distinct (id,timestamp) pairs")
	}
}
