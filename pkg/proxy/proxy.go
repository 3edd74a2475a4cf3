// Package proxy implements the load-balancing proxy: it connects an
// upstream "requests-in" channel to a downstream "workers" channel using
// a FIFO of idle workers identified by their heartbeats, with an optional
// callback that picks a preferred worker per job.
package proxy

import (
	"bytes"
	"time"

	"github.com/yourusername/primeserver/internal/logging"
	"github.com/yourusername/primeserver/internal/transport"
)

// Proxy is one instance of the load-balancing loop. Scheduling is
// single-threaded cooperative, as is every component in this design.
type Proxy struct {
	cfg Config

	upstream   transport.Socket // router, binds
	downstream transport.Socket // router, binds

	fifo *workerFIFO
	// workers maps a worker's address to its current FIFO node, so a
	// re-advertisement can replace the heartbeat in place without losing
	// the worker's queue position information, and a dispatch can evict
	// the node in O(1) without a linear scan.
	workers map[string]*workerNode

	Stats Stats
	log   *logging.Logger
}

// New binds the two router sockets cfg names and returns a ready Proxy.
func New(cfg Config, ctx *transport.Context) (*Proxy, error) {
	p := &Proxy{
		cfg:     cfg,
		fifo:    newWorkerFIFO(),
		workers: make(map[string]*workerNode),
		log:     logging.New("proxy"),
	}
	p.upstream = ctx.NewSocket(transport.Router)
	if err := p.upstream.Bind(cfg.UpstreamEndpoint); err != nil {
		return nil, err
	}
	p.downstream = ctx.NewSocket(transport.Router)
	if err := p.downstream.Bind(cfg.DownstreamEndpoint); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Proxy) Close() error {
	p.upstream.Close()
	p.downstream.Close()
	return nil
}

// Run executes the proxy's loop until stop is closed. When there are no
// idle workers, the loop polls only downstream, so requests naturally
// queue in the upstream transport rather than being pulled in and buffered
// here.
func (p *Proxy) Run(stop <-chan struct{}) error {
	const pollInterval = 250 * time.Millisecond
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		var items []transport.PollItem
		if p.fifo.size > 0 {
			items = []transport.PollItem{{Socket: p.upstream}, {Socket: p.downstream}}
		} else {
			items = []transport.PollItem{{Socket: p.downstream}}
		}
		if _, err := transport.Poll(items, pollInterval); err != nil {
			return err
		}
		for _, it := range items {
			if !it.Fired {
				continue
			}
			switch it.Socket {
			case p.downstream:
				p.drainDownstream()
			case p.upstream:
				p.drainUpstream()
			}
		}
	}
}

func (p *Proxy) drainDownstream() {
	for {
		msg, ok, err := p.downstream.RecvAll(transport.DontWait)
		if err != nil || !ok {
			return
		}
		p.handleHeartbeat(msg)
	}
}

// handleHeartbeat processes [worker-addr, heartbeat]: a new worker is
// appended to the FIFO, a known one has its heartbeat replaced in place
// without losing its queue position.
func (p *Proxy) handleHeartbeat(msg transport.Message) {
	if len(msg) < 2 {
		return
	}
	addr := string(msg[0])
	heartbeat := append([]byte(nil), msg[1]...)

	if node, ok := p.workers[addr]; ok {
		node.heartbeat = heartbeat
		return
	}
	node := p.fifo.pushBack(addr, heartbeat)
	p.workers[addr] = node
	p.Stats.WorkersAdvertised.Add(1)
}

// drainUpstream pops queued requests only as long as idle workers remain to
// receive them; it checks p.fifo.size before each pop (RecvAll has no peek,
// so a popped-then-undispatchable request would be lost for good) rather
// than pulling every queued message in and dropping what dispatch can't
// place. The rest stays queued in the upstream transport for the next poll.
func (p *Proxy) drainUpstream() {
	for p.fifo.size > 0 {
		msg, ok, err := p.upstream.RecvAll(transport.DontWait)
		if err != nil || !ok {
			return
		}
		p.dispatch(msg)
	}
}

// dispatch selects a worker for [src-identity, request-info, ...payload]
// and forwards [worker-addr, request-info, ...payload] downstream.
func (p *Proxy) dispatch(msg transport.Message) {
	if len(msg) < 2 {
		return
	}
	payload := msg[1:] // request-info + body, src identity is discarded

	node := p.selectWorker(payload)
	if node == nil {
		return // drainUpstream only pops while fifo.size > 0; this is unreachable
	}

	out := make(transport.Message, 0, len(payload)+1)
	out = append(out, []byte(node.address))
	out = append(out, payload...)
	p.downstream.SendAll(out, transport.None)
	p.Stats.JobsDispatched.Add(1)

	p.fifo.remove(node)
	delete(p.workers, node.address)
}

func (p *Proxy) selectWorker(payload transport.Message) *workerNode {
	if p.fifo.size == 0 {
		return nil
	}
	if p.cfg.Choose != nil {
		chosen := p.cfg.Choose(fifoView{p.fifo}, payload)
		if chosen != nil {
			if node := p.findByHeartbeat(chosen); node != nil {
				p.Stats.PreferenceHits.Add(1)
				return node
			}
		}
		p.Stats.PreferenceMisses.Add(1)
	}
	return p.fifo.Front()
}

func (p *Proxy) findByHeartbeat(heartbeat []byte) *workerNode {
	for n := p.fifo.head; n != nil; n = n.next {
		if bytes.Equal(n.heartbeat, heartbeat) {
			return n
		}
	}
	return nil
}
