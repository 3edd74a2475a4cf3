package transport

import "fmt"

type role int

const (
	roleBound role = iota
	roleConnected
)

// inprocSocket implements Socket over an in-process hub. Stream and Router
// kinds are asymmetric (one bound side, many connected peers addressed by
// identity); Pub/Sub is symmetric broadcast and ignores which side bound.
type inprocSocket struct {
	kind      Kind
	role      role
	h         *hub
	identity  string     // assigned identity for a connected Stream/Dealer peer
	selfQueue *msgQueue  // where this socket's own Recv reads from
	options   map[string]interface{}
	closed    bool
}

func bindInproc(r *registry, kind Kind, endpoint string) (Socket, error) {
	h := r.get(endpoint, kind)
	h.mu.Lock()
	h.bound = true
	h.kind = kind
	h.mu.Unlock()

	s := &inprocSocket{kind: kind, role: roleBound, h: h, options: map[string]interface{}{}}
	switch kind {
	case Stream, Router:
		s.selfQueue = h.boundQueue
	case Sub:
		s.identity = fmt.Sprintf("sub-bound-%d", h.nextSeq())
		q := newMsgQueue()
		h.mu.Lock()
		h.subs[s.identity] = q
		h.mu.Unlock()
		s.selfQueue = q
	case Pub:
		// Pub never receives; selfQueue stays nil.
	case Dealer:
		return nil, fmt.Errorf("transport: dealer sockets connect, they do not bind")
	}
	return s, nil
}

func connectInproc(r *registry, kind Kind, endpoint string) (Socket, error) {
	h := r.get(endpoint, kind)
	s := &inprocSocket{kind: kind, role: roleConnected, h: h, options: map[string]interface{}{}}

	switch kind {
	case Stream, Dealer:
		s.identity = randomIdentity()
		q := newMsgQueue()
		h.mu.Lock()
		h.peers[s.identity] = &peer{id: s.identity, queue: q}
		h.mu.Unlock()
		s.selfQueue = q
		if kind == Stream {
			// connect-notify: [identity, empty], delivered both to the
			// bound side and back to the connecting socket itself, exactly
			// as a ZMQ_STREAM socket reports connect events on both ends.
			h.boundQueue.push(Message{[]byte(s.identity), {}})
			q.push(Message{[]byte(s.identity), {}})
		}
	case Sub:
		s.identity = fmt.Sprintf("sub-%d", h.nextSeq())
		q := newMsgQueue()
		h.mu.Lock()
		h.subs[s.identity] = q
		h.mu.Unlock()
		s.selfQueue = q
	case Pub:
		// Pub never receives; nothing to register beyond the hub handle.
	case Router:
		return nil, fmt.Errorf("transport: router sockets bind, they do not connect")
	}
	return s, nil
}

func (s *inprocSocket) Kind() Kind { return s.kind }

func (s *inprocSocket) Bind(string) error    { return fmt.Errorf("transport: socket already bound/connected") }
func (s *inprocSocket) Connect(string) error { return fmt.Errorf("transport: socket already bound/connected") }

func (s *inprocSocket) SetOption(name string, value interface{}) error {
	s.options[name] = value
	return nil
}

func (s *inprocSocket) GetOption(name string) (interface{}, error) {
	if name == "identity" {
		return s.identity, nil
	}
	v, ok := s.options[name]
	if !ok {
		return nil, fmt.Errorf("transport: option %q not set", name)
	}
	return v, nil
}

func (s *inprocSocket) Send(frame []byte, flags Flags) error {
	return s.SendAll(Message{frame}, flags)
}

func (s *inprocSocket) SendAll(msg Message, flags Flags) error {
	if s.closed {
		return ErrClosed
	}
	switch s.kind {
	case Pub:
		s.h.mu.Lock()
		subs := make([]*msgQueue, 0, len(s.h.subs))
		for _, q := range s.h.subs {
			subs = append(subs, q)
		}
		s.h.mu.Unlock()
		for _, q := range subs {
			q.push(msg.Clone())
		}
		return nil
	case Sub:
		return fmt.Errorf("transport: sub sockets do not send")
	}

	if s.role == roleBound {
		// Stream/Router bound side: first frame is the peer identity.
		if len(msg) == 0 {
			return fmt.Errorf("transport: send requires an identity frame")
		}
		identity := string(msg[0])
		payload := msg[1:]
		s.h.mu.Lock()
		p, ok := s.h.peers[identity]
		s.h.mu.Unlock()
		if !ok {
			if flags&DontWait != 0 {
				return ErrNoSuchPeer
			}
			return ErrNoSuchPeer
		}
		if s.kind == Stream && (len(payload) == 0 || len(payload[0]) == 0) {
			// empty body is the transport convention for closing the
			// connection; mirror a disconnect back to both sides.
			s.h.mu.Lock()
			delete(s.h.peers, identity)
			s.h.mu.Unlock()
			p.queue.push(Message{[]byte(identity), {}})
			p.queue.close()
			s.h.boundQueue.push(Message{[]byte(identity), {}})
			return nil
		}
		if s.kind == Stream {
			// a Stream peer sees [identity, payload], as over tcp.
			p.queue.push(append(Message{[]byte(identity)}, payload.Clone()...))
		} else {
			p.queue.push(payload.Clone())
		}
		if s.kind == Router {
			// Routed jobs are one-shot: the peer must re-advertise before
			// it is eligible for more work, mirrored by proxy bookkeeping,
			// not by the transport itself, so nothing more to do here.
		}
		return nil
	}

	// connected side
	switch s.kind {
	case Stream:
		if len(msg) == 0 {
			return fmt.Errorf("transport: send requires an identity frame")
		}
		payload := msg[1:]
		if len(payload) == 0 || len(payload[0]) == 0 {
			s.h.mu.Lock()
			delete(s.h.peers, s.identity)
			s.h.mu.Unlock()
			s.h.boundQueue.push(Message{[]byte(s.identity), {}})
			s.closed = true
			return nil
		}
		s.h.boundQueue.push(append(Message{[]byte(s.identity)}, payload.Clone()...))
		return nil
	case Dealer:
		s.h.boundQueue.push(append(Message{[]byte(s.identity)}, msg.Clone()...))
		return nil
	}
	return fmt.Errorf("transport: send not supported for %s", s.kind)
}

func (s *inprocSocket) Recv(flags Flags) ([]byte, bool, error) {
	msg, ok, err := s.RecvAll(flags)
	if !ok || err != nil {
		return nil, ok, err
	}
	if len(msg) == 0 {
		return nil, false, nil
	}
	return msg[0], true, nil
}

func (s *inprocSocket) RecvAll(flags Flags) (Message, bool, error) {
	if s.selfQueue == nil {
		return nil, false, fmt.Errorf("transport: socket %s does not receive", s.kind)
	}
	if flags&DontWait != 0 {
		m, ok := s.selfQueue.pop()
		return m, ok, nil
	}
	for {
		if m, ok := s.selfQueue.pop(); ok {
			return m, true, nil
		}
		<-s.selfQueue.signal()
	}
}

func (s *inprocSocket) readable() bool {
	if s.selfQueue == nil {
		return false
	}
	return s.selfQueue.readable()
}

func (s *inprocSocket) signal() <-chan struct{} {
	if s.selfQueue == nil {
		ch := make(chan struct{})
		return ch
	}
	return s.selfQueue.signal()
}

func (s *inprocSocket) Close() error {
	s.closed = true
	if s.selfQueue != nil {
		s.selfQueue.close()
	}
	if s.role == roleConnected {
		s.h.mu.Lock()
		delete(s.h.peers, s.identity)
		delete(s.h.subs, s.identity)
		s.h.mu.Unlock()
	}
	return nil
}
