package transport

import (
	"crypto/rand"
	"fmt"
	"sync"
)

// hub is the in-process rendezvous point for one inproc:// endpoint. It
// plays the role a real transport's kernel-level socket buffers would play:
// one side binds (the "server" role for Stream/Router, the broadcaster for
// Pub), any number of sides connect (Dealer/Sub, or additional Stream
// clients), and the hub shunts messages between them with identity framing
// applied the same way a ZMQ_ROUTER/ZMQ_STREAM socket would apply it.
type hub struct {
	mu    sync.Mutex
	kind  Kind
	bound bool

	// boundQueue receives inbound traffic addressed to the bound side:
	// [identity, ...payload] for Router/Stream.
	boundQueue *msgQueue

	peers map[string]*peer

	// subs holds subscriber queues for Pub/Sub hubs, keyed by subscriber id.
	subs map[string]*msgQueue

	seq uint64
}

type peer struct {
	id    string
	queue *msgQueue // delivers to the connecting side
}

func newHub(kind Kind) *hub {
	return &hub{
		kind:       kind,
		boundQueue: newMsgQueue(),
		peers:      make(map[string]*peer),
		subs:       make(map[string]*msgQueue),
	}
}

func randomIdentity() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("id-%x", b)
	}
	return fmt.Sprintf("%x", b)
}

func (h *hub) nextSeq() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.seq++
	return h.seq
}

// registry maps inproc:// endpoint names to their hub, scoped per Context.
type registry struct {
	mu   sync.Mutex
	hubs map[string]*hub
}

func newRegistry() *registry {
	return &registry{hubs: make(map[string]*hub)}
}

func (r *registry) get(endpoint string, kind Kind) *hub {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hubs[endpoint]
	if !ok {
		h = newHub(kind)
		r.hubs[endpoint] = h
	}
	return h
}
