package transport

import (
	"testing"
	"time"
)

func TestStreamRoundTrip(t *testing.T) {
	ctx := NewContext()
	srv := ctx.NewSocket(Stream)
	if err := srv.Bind("inproc://client"); err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer srv.Close()

	cli := ctx.NewSocket(Stream)
	if err := cli.Connect("inproc://client"); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer cli.Close()

	// connect-notify arrives on both ends.
	notify, ok, err := srv.RecvAll(None)
	if err != nil || !ok || len(notify) != 2 {
		t.Fatalf("server connect-notify = %v, %v, %v", notify, ok, err)
	}
	identity := notify[0]
	if cnotify, ok, err := cli.RecvAll(None); err != nil || !ok {
		t.Fatalf("client connect-notify = %v, %v, %v", cnotify, ok, err)
	}

	if err := srv.SendAll(Message{identity, []byte("hello")}, None); err != nil {
		t.Fatalf("SendAll() error = %v", err)
	}
	got, ok, err := cli.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("client RecvAll() = %v, %v, %v", got, ok, err)
	}
	if len(got) != 2 || string(got[1]) != "hello" {
		t.Errorf("client received %q, want %q", got, "hello")
	}
}

func TestStreamEmptyPayloadCloses(t *testing.T) {
	ctx := NewContext()
	srv := ctx.NewSocket(Stream)
	srv.Bind("inproc://closeme")
	defer srv.Close()
	cli := ctx.NewSocket(Stream)
	cli.Connect("inproc://closeme")
	defer cli.Close()

	notify, _, _ := srv.RecvAll(None)
	identity := notify[0]
	if cnotify, ok, err := cli.RecvAll(None); err != nil || !ok {
		t.Fatalf("client connect-notify = %v, %v, %v", cnotify, ok, err)
	}

	if err := srv.SendAll(Message{identity, {}}, None); err != nil {
		t.Fatalf("SendAll() close error = %v", err)
	}
	got, ok, err := cli.RecvAll(None)
	if err != nil || !ok {
		t.Fatalf("client RecvAll() after close = %v, %v, %v", got, ok, err)
	}
	if len(got[1]) != 0 {
		t.Errorf("expected empty payload signaling close, got %q", got[1])
	}
}

func TestDealerRouterFIFO(t *testing.T) {
	ctx := NewContext()
	router := ctx.NewSocket(Router)
	router.Bind("inproc://work")
	defer router.Close()

	dealer := ctx.NewSocket(Dealer)
	dealer.Connect("inproc://work")
	defer dealer.Close()

	if err := dealer.SendAll(Message{[]byte("ready")}, None); err != nil {
		t.Fatalf("dealer SendAll() error = %v", err)
	}
	msg, ok, err := router.RecvAll(None)
	if err != nil || !ok || len(msg) != 2 {
		t.Fatalf("router RecvAll() = %v, %v, %v", msg, ok, err)
	}
	identity := msg[0]
	if string(msg[1]) != "ready" {
		t.Errorf("router got %q, want %q", msg[1], "ready")
	}

	if err := router.SendAll(Message{identity, []byte("job-1")}, None); err != nil {
		t.Fatalf("router SendAll() error = %v", err)
	}
	job, ok, err := dealer.RecvAll(None)
	if err != nil || !ok || string(job[0]) != "job-1" {
		t.Fatalf("dealer RecvAll() = %v, %v, %v", job, ok, err)
	}
}

func TestPubSubBroadcast(t *testing.T) {
	ctx := NewContext()
	pub := ctx.NewSocket(Pub)
	pub.Bind("inproc://fanout")
	defer pub.Close()

	subA := ctx.NewSocket(Sub)
	subA.Connect("inproc://fanout")
	defer subA.Close()
	subB := ctx.NewSocket(Sub)
	subB.Connect("inproc://fanout")
	defer subB.Close()

	if err := pub.SendAll(Message{[]byte("interrupt")}, None); err != nil {
		t.Fatalf("pub SendAll() error = %v", err)
	}
	for name, s := range map[string]Socket{"A": subA, "B": subB} {
		msg, ok, err := s.RecvAll(DontWait)
		if err != nil || !ok {
			t.Fatalf("sub %s RecvAll() = %v, %v, %v", name, msg, ok, err)
		}
		if string(msg[0]) != "interrupt" {
			t.Errorf("sub %s got %q, want %q", name, msg[0], "interrupt")
		}
	}
}

func TestRecvAllDontWaitNoData(t *testing.T) {
	ctx := NewContext()
	router := ctx.NewSocket(Router)
	router.Bind("inproc://empty")
	defer router.Close()

	msg, ok, err := router.RecvAll(DontWait)
	if err != nil {
		t.Fatalf("RecvAll() error = %v", err)
	}
	if ok {
		t.Errorf("RecvAll() ok = true with nothing queued, msg = %v", msg)
	}
}

func TestPollWakesOnArrival(t *testing.T) {
	ctx := NewContext()
	router := ctx.NewSocket(Router)
	router.Bind("inproc://poll")
	defer router.Close()
	dealer := ctx.NewSocket(Dealer)
	dealer.Connect("inproc://poll")
	defer dealer.Close()

	done := make(chan int, 1)
	go func() {
		items := []PollItem{{Socket: router}}
		n, err := Poll(items, 2*time.Second)
		if err != nil {
			t.Error(err)
		}
		done <- n
	}()

	time.Sleep(20 * time.Millisecond)
	dealer.SendAll(Message{[]byte("hi")}, None)

	select {
	case n := <-done:
		if n != 1 {
			t.Errorf("Poll() fired = %d, want 1", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll() never returned")
	}
}

func TestPollTimeout(t *testing.T) {
	ctx := NewContext()
	router := ctx.NewSocket(Router)
	router.Bind("inproc://idle")
	defer router.Close()

	items := []PollItem{{Socket: router}}
	start := time.Now()
	n, err := Poll(items, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("Poll() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Poll() fired = %d, want 0", n)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("Poll() returned too early: %v", elapsed)
	}
}
