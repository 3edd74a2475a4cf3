package transport

import (
	"testing"
	"time"
)

// boundAddr reaches through the socket/tcpSocket wrapping to read the
// OS-assigned port from a "tcp://127.0.0.1:0" bind, so tests never need to
// guess or reserve a fixed port.
func boundAddr(t *testing.T, sock Socket) string {
	t.Helper()
	s, ok := sock.(*socket)
	if !ok {
		t.Fatalf("socket is %T, want *socket", sock)
	}
	ts, ok := s.impl.(*tcpSocket)
	if !ok {
		t.Fatalf("socket impl is %T, want *tcpSocket", s.impl)
	}
	if ts.ln == nil {
		t.Fatalf("socket has no listener")
	}
	return ts.ln.Addr().String()
}

func TestTCPStreamRoundTrip(t *testing.T) {
	ctx := NewContext()

	srv := ctx.NewSocket(Stream)
	if err := srv.Bind("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer srv.Close()
	addr := boundAddr(t, srv)

	cli := ctx.NewSocket(Stream)
	if err := cli.Connect("tcp://" + addr); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	// both ends first see a connect-notify: [identity, <empty>]
	notify, ok, err := srv.RecvAll(None)
	if err != nil || !ok || len(notify) != 2 {
		t.Fatalf("server connect-notify = %v, %v, %v", notify, ok, err)
	}
	identity := notify[0]

	if _, ok, err := cli.RecvAll(None); err != nil || !ok {
		t.Fatalf("client connect-notify: ok=%v err=%v", ok, err)
	}

	if err := cli.SendAll(Message{nil, []byte("hello")}, None); err != nil {
		t.Fatalf("client SendAll: %v", err)
	}

	msg, ok, err := srv.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("server RecvAll: ok=%v err=%v", ok, err)
	}
	if len(msg) != 2 || string(msg[1]) != "hello" {
		t.Fatalf("server received %v, want [identity hello]", msg)
	}

	if err := srv.SendAll(Message{identity, []byte("world")}, None); err != nil {
		t.Fatalf("server SendAll: %v", err)
	}

	reply, ok, err := cli.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("client RecvAll reply: ok=%v err=%v", ok, err)
	}
	if len(reply) != 2 || string(reply[1]) != "world" {
		t.Errorf("client received %v, want [.. world]", reply)
	}
}

func TestTCPStreamEmptyPayloadClosesConnection(t *testing.T) {
	ctx := NewContext()

	srv := ctx.NewSocket(Stream)
	if err := srv.Bind("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer srv.Close()
	addr := boundAddr(t, srv)

	cli := ctx.NewSocket(Stream)
	if err := cli.Connect("tcp://" + addr); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	if _, ok, err := cli.RecvAll(None); err != nil || !ok {
		t.Fatalf("client connect-notify: ok=%v err=%v", ok, err)
	}
	notify, ok, err := srv.RecvAll(None)
	if err != nil || !ok || len(notify) != 2 {
		t.Fatalf("server connect-notify = %v, %v, %v", notify, ok, err)
	}
	identity := notify[0]

	if err := cli.SendAll(Message{nil, {}}, None); err != nil {
		t.Fatalf("client disconnect SendAll: %v", err)
	}

	msg, ok, err := srv.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("server RecvAll disconnect notice: ok=%v err=%v", ok, err)
	}
	if len(msg) != 2 || len(msg[1]) != 0 {
		t.Errorf("disconnect notice = %v, want [identity <empty>]", msg)
	}

	if err := srv.SendAll(Message{identity, []byte("too late")}, None); err != ErrNoSuchPeer {
		t.Errorf("send after disconnect = %v, want ErrNoSuchPeer", err)
	}
}

func TestTCPDealerRouterFramedRoundTrip(t *testing.T) {
	ctx := NewContext()

	router := ctx.NewSocket(Router)
	if err := router.Bind("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer router.Close()
	addr := boundAddr(t, router)

	dealer := ctx.NewSocket(Dealer)
	if err := dealer.Connect("tcp://" + addr); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer dealer.Close()

	if err := dealer.SendAll(Message{[]byte("part-a"), []byte("part-b")}, None); err != nil {
		t.Fatalf("dealer SendAll: %v", err)
	}

	msg, ok, err := router.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("router RecvAll: ok=%v err=%v", ok, err)
	}
	if len(msg) != 3 || string(msg[1]) != "part-a" || string(msg[2]) != "part-b" {
		t.Fatalf("router received %v, want [identity part-a part-b]", msg)
	}
	identity := msg[0]

	if err := router.SendAll(Message{identity, []byte("ack")}, None); err != nil {
		t.Fatalf("router SendAll: %v", err)
	}

	reply, ok, err := dealer.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("dealer RecvAll: ok=%v err=%v", ok, err)
	}
	if len(reply) != 1 || string(reply[0]) != "ack" {
		t.Errorf("dealer received %v, want [ack]", reply)
	}
}

func TestTCPPubSubBroadcast(t *testing.T) {
	ctx := NewContext()

	pub := ctx.NewSocket(Pub)
	if err := pub.Bind("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer pub.Close()
	addr := boundAddr(t, pub)

	sub1 := ctx.NewSocket(Sub)
	if err := sub1.Connect("tcp://" + addr); err != nil {
		t.Fatalf("Connect sub1: %v", err)
	}
	defer sub1.Close()
	sub2 := ctx.NewSocket(Sub)
	if err := sub2.Connect("tcp://" + addr); err != nil {
		t.Fatalf("Connect sub2: %v", err)
	}
	defer sub2.Close()

	// give the accept loop time to register both subscriber connections
	// before publishing, since Pub.SendAll snapshots conns under lock.
	ts := pub.(*socket).impl.(*tcpSocket)
	deadline := time.Now().Add(time.Second)
	for {
		ts.mu.Lock()
		n := len(ts.conns)
		ts.mu.Unlock()
		if n == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := pub.SendAll(Message{[]byte("topic"), []byte("payload")}, None); err != nil {
		t.Fatalf("pub SendAll: %v", err)
	}

	for i, sub := range []Socket{sub1, sub2} {
		msg, ok, err := sub.RecvAll(None)
		if err != nil || !ok {
			t.Fatalf("sub%d RecvAll: ok=%v err=%v", i, ok, err)
		}
		if len(msg) != 2 || string(msg[0]) != "topic" || string(msg[1]) != "payload" {
			t.Errorf("sub%d received %v, want [topic payload]", i, msg)
		}
	}
}

func TestTCPPollWakesOnArrival(t *testing.T) {
	ctx := NewContext()

	srv := ctx.NewSocket(Stream)
	if err := srv.Bind("tcp://127.0.0.1:0"); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer srv.Close()
	addr := boundAddr(t, srv)

	cli := ctx.NewSocket(Stream)
	if err := cli.Connect("tcp://" + addr); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer cli.Close()

	if _, ok, err := cli.RecvAll(None); err != nil || !ok {
		t.Fatalf("client connect-notify: ok=%v err=%v", ok, err)
	}
	if _, ok, err := srv.RecvAll(None); err != nil || !ok {
		t.Fatalf("server connect-notify: ok=%v err=%v", ok, err)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		cli.SendAll(Message{nil, []byte("ping")}, None)
	}()

	items := []PollItem{{Socket: srv}}
	n, err := Poll(items, time.Second)
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 1 || !items[0].Fired {
		t.Fatalf("Poll returned n=%d fired=%v, want 1/true", n, items[0].Fired)
	}
}
