package transport

import (
	"fmt"
	"net"
	"sync"
)

// tcpSocket is the real-network backend for tcp:// endpoints. Stream
// sockets expose raw, unframed bytes (so the HTTP/netstring parsers see
// genuine partial reads); Router/Dealer/Pub/Sub exchange discrete
// multi-part messages using the length-prefixed codec in framing.go.
type tcpSocket struct {
	kind Kind
	role role

	ln net.Listener // bound Stream/Router/Sub/Pub

	mu      sync.Mutex
	conns   map[string]*wireConn // bound-side peers, keyed by identity
	selfID  string               // identity of a connected-side socket
	selfQ   *msgQueue            // inbound queue for this socket's Recv
	boundQ  *msgQueue            // aggregate inbound queue for a bound socket
	dialed  net.Conn             // the single connection of a connected socket
	closed  bool
}

type wireConn struct {
	conn net.Conn
	wmu  sync.Mutex
}

func bindTCP(kind Kind, addr string) (Socket, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &tcpSocket{
		kind:   kind,
		role:   roleBound,
		ln:     ln,
		conns:  make(map[string]*wireConn),
		boundQ: newMsgQueue(),
	}
	go s.acceptLoop()
	return s, nil
}

func connectTCP(kind Kind, addr string) (Socket, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &tcpSocket{
		kind:   kind,
		role:   roleConnected,
		selfID: randomIdentity(),
		selfQ:  newMsgQueue(),
		dialed: conn,
	}
	switch kind {
	case Stream:
		s.selfQ.push(Message{[]byte(s.selfID), {}})
		go s.readRawLoop(conn, s.selfQ, s.selfID)
	case Dealer, Sub:
		go s.readFramedLoop(conn, s.selfQ, "")
	case Pub:
		// Pub never receives.
	}
	return s, nil
}

func (s *tcpSocket) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		identity := randomIdentity()
		wc := &wireConn{conn: conn}
		s.mu.Lock()
		if s.conns == nil {
			s.conns = map[string]*wireConn{}
		}
		s.conns[identity] = wc
		s.mu.Unlock()

		switch s.kind {
		case Stream:
			s.boundQ.push(Message{[]byte(identity), {}})
			go s.readRawLoop(conn, s.boundQ, identity)
		case Router:
			go s.readFramedLoop(conn, s.boundQ, identity)
		case Pub:
			// subscribers don't send; just watch for disconnect.
			go func() {
				buf := make([]byte, 1)
				conn.Read(buf)
				s.mu.Lock()
				delete(s.conns, identity)
				s.mu.Unlock()
			}()
		case Sub:
			go s.readFramedLoop(conn, s.boundQWithInit(), "")
		}
	}
}

func (s *tcpSocket) boundQWithInit() *msgQueue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.boundQ == nil {
		s.boundQ = newMsgQueue()
	}
	return s.boundQ
}

func (s *tcpSocket) readRawLoop(conn net.Conn, q *msgQueue, identity string) {
	buf := make([]byte, DefaultBatchSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			q.push(Message{[]byte(identity), chunk})
		}
		if err != nil {
			q.push(Message{[]byte(identity), {}})
			s.mu.Lock()
			delete(s.conns, identity)
			s.mu.Unlock()
			return
		}
	}
}

func (s *tcpSocket) readFramedLoop(conn net.Conn, q *msgQueue, identityPrefix string) {
	for {
		msg, err := readFramedMessage(conn)
		if err != nil {
			return
		}
		if identityPrefix != "" {
			msg = append(Message{[]byte(identityPrefix)}, msg...)
		}
		q.push(msg)
	}
}

func (s *tcpSocket) Kind() Kind { return s.kind }
func (s *tcpSocket) Bind(string) error {
	return fmt.Errorf("transport: socket already bound/connected")
}
func (s *tcpSocket) Connect(string) error {
	return fmt.Errorf("transport: socket already bound/connected")
}

func (s *tcpSocket) SetOption(name string, value interface{}) error { return nil }
func (s *tcpSocket) GetOption(name string) (interface{}, error) {
	if name == "identity" {
		return s.selfID, nil
	}
	return nil, fmt.Errorf("transport: option %q not set", name)
}

func (s *tcpSocket) Send(frame []byte, flags Flags) error {
	return s.SendAll(Message{frame}, flags)
}

func (s *tcpSocket) SendAll(msg Message, flags Flags) error {
	if s.closed {
		return ErrClosed
	}
	switch {
	case s.role == roleBound && s.kind == Stream:
		if len(msg) == 0 {
			return fmt.Errorf("transport: send requires an identity frame")
		}
		identity := string(msg[0])
		payload := msg[1:]
		s.mu.Lock()
		wc, ok := s.conns[identity]
		s.mu.Unlock()
		if !ok {
			return ErrNoSuchPeer
		}
		if len(payload) == 0 || len(payload[0]) == 0 {
			wc.conn.Close()
			s.mu.Lock()
			delete(s.conns, identity)
			s.mu.Unlock()
			return nil
		}
		wc.wmu.Lock()
		_, err := wc.conn.Write(payload[0])
		wc.wmu.Unlock()
		return err
	case s.role == roleBound && s.kind == Router:
		if len(msg) == 0 {
			return fmt.Errorf("transport: send requires an identity frame")
		}
		identity := string(msg[0])
		s.mu.Lock()
		wc, ok := s.conns[identity]
		s.mu.Unlock()
		if !ok {
			return ErrNoSuchPeer
		}
		wc.wmu.Lock()
		err := writeFramedMessage(wc.conn, msg[1:])
		wc.wmu.Unlock()
		return err
	case s.kind == Pub:
		if s.role == roleBound {
			s.mu.Lock()
			conns := make([]*wireConn, 0, len(s.conns))
			for _, wc := range s.conns {
				conns = append(conns, wc)
			}
			s.mu.Unlock()
			for _, wc := range conns {
				wc.wmu.Lock()
				writeFramedMessage(wc.conn, msg)
				wc.wmu.Unlock()
			}
			return nil
		}
		return writeFramedMessage(s.dialed, msg)
	case s.role == roleConnected && s.kind == Stream:
		payload := msg[1:]
		if len(payload) == 0 || len(payload[0]) == 0 {
			s.closed = true
			return s.dialed.Close()
		}
		_, err := s.dialed.Write(payload[0])
		return err
	case s.role == roleConnected && s.kind == Dealer:
		return writeFramedMessage(s.dialed, msg)
	}
	return fmt.Errorf("transport: send not supported for %s/%v", s.kind, s.role)
}

func (s *tcpSocket) Recv(flags Flags) ([]byte, bool, error) {
	msg, ok, err := s.RecvAll(flags)
	if !ok || err != nil {
		return nil, ok, err
	}
	if len(msg) == 0 {
		return nil, false, nil
	}
	return msg[0], true, nil
}

func (s *tcpSocket) queue() *msgQueue {
	if s.role == roleBound {
		return s.boundQ
	}
	return s.selfQ
}

func (s *tcpSocket) RecvAll(flags Flags) (Message, bool, error) {
	q := s.queue()
	if q == nil {
		return nil, false, fmt.Errorf("transport: socket %s does not receive", s.kind)
	}
	if flags&DontWait != 0 {
		m, ok := q.pop()
		return m, ok, nil
	}
	for {
		if m, ok := q.pop(); ok {
			return m, true, nil
		}
		<-q.signal()
	}
}

func (s *tcpSocket) readable() bool {
	q := s.queue()
	if q == nil {
		return false
	}
	return q.readable()
}

func (s *tcpSocket) signal() <-chan struct{} {
	q := s.queue()
	if q == nil {
		return make(chan struct{})
	}
	return q.signal()
}

func (s *tcpSocket) Close() error {
	s.closed = true
	if s.ln != nil {
		s.ln.Close()
	}
	if s.dialed != nil {
		s.dialed.Close()
	}
	return nil
}
