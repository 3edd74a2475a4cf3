package batchclient

import (
	"testing"
	"time"

	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/protocol/netstring"
)

func TestDialReceivesIdentity(t *testing.T) {
	ctx := transport.NewContext()
	srv := ctx.NewSocket(transport.Stream)
	if err := srv.Bind("inproc://bc1"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer srv.Close()

	c, err := Dial(Config{Endpoint: "inproc://bc1", Protocol: netstring.New(0)}, ctx)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()
	if len(c.identity) == 0 {
		t.Error("Dial() left the client with no identity")
	}
}

func TestRunSendsAndCollectsOneRoundTrip(t *testing.T) {
	ctx := transport.NewContext()
	srv := ctx.NewSocket(transport.Stream)
	srv.Bind("inproc://bc2")
	defer srv.Close()

	c, err := Dial(Config{Endpoint: "inproc://bc2", Protocol: netstring.New(0)}, ctx)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer c.Close()

	go func() {
		msg, ok, err := srv.RecvAll(transport.None)
		if err != nil || !ok {
			return
		}
		identity := msg[0]
		srv.SendAll(transport.Message{identity, netstring.Serialize([]byte("reply"))}, transport.None)
	}()

	sent := false
	requestFn := func() []byte {
		if sent {
			return nil
		}
		sent = true
		return netstring.Serialize([]byte("request"))
	}
	var got []byte
	collectFn := func(body []byte) bool {
		got = body
		return false
	}

	deadline := time.Now().Add(2 * time.Second)
	for got == nil && time.Now().Before(deadline) {
		if err := c.Run(requestFn, collectFn); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if got == nil {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if string(got) != "reply" {
		t.Errorf("collected body = %q, want %q", got, "reply")
	}
}

func TestDialMissingEndpointFails(t *testing.T) {
	ctx := transport.NewContext()
	if _, err := Dial(Config{Protocol: netstring.New(0)}, ctx); err == nil {
		t.Error("Dial() error = nil, want a malformed-endpoint error")
	}
}
