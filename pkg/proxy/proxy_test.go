package proxy

import (
	"testing"
	"time"

	"github.com/yourusername/primeserver/internal/transport"
)

func newTestProxy(t *testing.T, choose ChooseFunc) (*Proxy, *transport.Context, func()) {
	t.Helper()
	ctx := transport.NewContext()
	cfg, err := NewBuilder().
		UpstreamEndpoint("inproc://proxy-up").
		DownstreamEndpoint("inproc://proxy-down").
		WithChoose(choose).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	p, err := New(cfg, ctx)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	stop := make(chan struct{})
	go p.Run(stop)
	return p, ctx, func() { close(stop); p.Close() }
}

func advertiseWorker(t *testing.T, ctx *transport.Context, tag string) transport.Socket {
	t.Helper()
	w := ctx.NewSocket(transport.Dealer)
	if err := w.Connect("inproc://proxy-down"); err != nil {
		t.Fatalf("worker Connect() error = %v", err)
	}
	if err := w.SendAll(transport.Message{[]byte(tag)}, transport.None); err != nil {
		t.Fatalf("worker advertise SendAll() error = %v", err)
	}
	return w
}

func TestProxyDispatchesToFIFOHead(t *testing.T) {
	_, ctx, cleanup := newTestProxy(t, nil)
	defer cleanup()

	front := ctx.NewSocket(transport.Dealer)
	front.Connect("inproc://proxy-up")
	defer front.Close()

	w1 := advertiseWorker(t, ctx, "w1")
	defer w1.Close()
	time.Sleep(20 * time.Millisecond)
	w2 := advertiseWorker(t, ctx, "w2")
	defer w2.Close()
	time.Sleep(20 * time.Millisecond)

	front.SendAll(transport.Message{[]byte("job-1")}, transport.None)

	msg, ok, err := w1.RecvAll(transport.None)
	if err != nil || !ok {
		t.Fatalf("w1 RecvAll() = %v, %v, %v", msg, ok, err)
	}
	if string(msg[0]) != "job-1" {
		t.Errorf("w1 got %q, want job routed to the first-advertised worker", msg[0])
	}

	got, ok, _ := w2.RecvAll(transport.DontWait)
	if ok {
		t.Errorf("w2 unexpectedly received a job: %v", got)
	}
}

func TestProxyFairnessRotatesThroughWorkers(t *testing.T) {
	_, ctx, cleanup := newTestProxy(t, nil)
	defer cleanup()

	front := ctx.NewSocket(transport.Dealer)
	front.Connect("inproc://proxy-up")
	defer front.Close()

	workers := make([]transport.Socket, 4)
	for i := range workers {
		workers[i] = advertiseWorker(t, ctx, string(rune('a'+i)))
		defer workers[i].Close()
	}
	time.Sleep(30 * time.Millisecond)

	counts := make(map[int]int)
	for job := 0; job < 40; job++ {
		front.SendAll(transport.Message{[]byte("job")}, transport.None)
		time.Sleep(2 * time.Millisecond)
		served := false
		for i, w := range workers {
			if msg, ok, _ := w.RecvAll(transport.DontWait); ok && len(msg) > 0 {
				counts[i]++
				w.SendAll(transport.Message{[]byte(string(rune('a' + i)))}, transport.None)
				served = true
			}
		}
		if served {
			time.Sleep(2 * time.Millisecond)
		}
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		t.Fatal("no jobs were ever dispatched")
	}
	for i, c := range counts {
		if diff := total/len(workers) - c; diff > total/2 || diff < -total/2 {
			t.Errorf("worker %d served %d of %d jobs, fairness skewed", i, c, total)
		}
	}
}

func TestProxyShapedRoutingHonorsPreference(t *testing.T) {
	choose := func(fifo FIFOView, payload [][]byte) []byte {
		if len(payload) == 0 {
			return nil
		}
		return payload[len(payload)-1]
	}
	_, ctx, cleanup := newTestProxy(t, choose)
	defer cleanup()

	front := ctx.NewSocket(transport.Dealer)
	front.Connect("inproc://proxy-up")
	defer front.Close()

	w1 := advertiseWorker(t, ctx, "tag-1")
	defer w1.Close()
	w2 := advertiseWorker(t, ctx, "tag-2")
	defer w2.Close()
	time.Sleep(20 * time.Millisecond)

	front.SendAll(transport.Message{[]byte("info"), []byte("tag-2")}, transport.None)

	msg, ok, err := w2.RecvAll(transport.None)
	if err != nil || !ok {
		t.Fatalf("w2 RecvAll() = %v, %v, %v", msg, ok, err)
	}

	if _, ok, _ := w1.RecvAll(transport.DontWait); ok {
		t.Error("preferred worker w2 should have received the job, not w1")
	}
}
