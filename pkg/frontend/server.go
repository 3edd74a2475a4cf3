// Package frontend owns client-facing stream connections, feeds bytes
// into per-session parsers, forwards whole requests downstream with a
// request-info envelope, and pipes responses from a loopback channel back
// to the originating client.
package frontend

import (
	"time"

	"github.com/yourusername/primeserver/internal/logging"
	"github.com/yourusername/primeserver/internal/quiesce"
	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/protocol"
)

// requestRecord is what the server remembers about one in-flight request.
type requestRecord struct {
	identity []byte
	node     *historyNode
}

// Server multiplexes many raw client byte streams into per-request
// envelopes dispatched to a proxy, and routes worker responses back to
// the client that originated them.
type Server struct {
	cfg Config

	clientSock    transport.Socket
	proxySock     transport.Socket
	resultSock    transport.Socket
	interruptSock transport.Socket

	sessions map[string]*session
	requests map[uint64]*requestRecord
	history  *historyList

	nextID uint32

	Stats     Stats
	log       *logging.Logger
	Lifecycle *quiesce.Lifecycle
}

// New binds/connects the four sockets cfg names and returns a ready Server.
func New(cfg Config, ctx *transport.Context) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		sessions: make(map[string]*session),
		requests: make(map[uint64]*requestRecord),
		history:  newHistoryList(),
		log:      logging.New("frontend"),
	}

	s.clientSock = ctx.NewSocket(transport.Stream)
	if err := s.clientSock.Bind(cfg.ClientEndpoint); err != nil {
		return nil, err
	}
	s.proxySock = ctx.NewSocket(transport.Dealer)
	if err := s.proxySock.Connect(cfg.ProxyEndpoint); err != nil {
		return nil, err
	}
	s.resultSock = ctx.NewSocket(transport.Sub)
	if err := s.resultSock.Bind(cfg.ResultEndpoint); err != nil {
		return nil, err
	}
	s.interruptSock = ctx.NewSocket(transport.Pub)
	if err := s.interruptSock.Bind(cfg.InterruptEndpoint); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases every socket the server owns.
func (s *Server) Close() error {
	s.clientSock.Close()
	s.proxySock.Close()
	s.resultSock.Close()
	s.interruptSock.Close()
	return nil
}

// Run executes the server's single-threaded cooperative loop until stop
// is closed. pollInterval bounds how promptly timeout scanning notices
// expired requests when RequestTimeout is configured; a zero-value
// channel for stop means run forever.
func (s *Server) Run(stop <-chan struct{}) error {
	const pollInterval = 250 * time.Millisecond
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		items := []transport.PollItem{{Socket: s.resultSock}, {Socket: s.clientSock}}
		if _, err := transport.Poll(items, pollInterval); err != nil {
			return err
		}

		// Loopback first: drain responses before accepting new work.
		if items[0].Fired {
			s.drainResults()
		}
		if items[1].Fired {
			s.drainClient()
		}
		if s.cfg.RequestTimeout > 0 {
			s.scanTimeouts()
		}
	}
}

func (s *Server) drainResults() {
	for {
		msg, ok, err := s.resultSock.RecvAll(transport.DontWait)
		if err != nil || !ok {
			return
		}
		s.handleResult(msg)
	}
}

func (s *Server) drainClient() {
	for {
		msg, ok, err := s.clientSock.RecvAll(transport.DontWait)
		if err != nil || !ok {
			return
		}
		s.handleClientMessage(msg)
	}
}

func (s *Server) handleClientMessage(msg transport.Message) {
	if len(msg) < 1 {
		return
	}
	identity := string(msg[0])
	var body []byte
	if len(msg) > 1 {
		body = msg[1]
	}

	if len(body) == 0 {
		sess, ok := s.sessions[identity]
		if !ok {
			s.sessions[identity] = newSession(s.cfg.Protocol)
			s.Stats.ActiveSessions.Add(1)
			return
		}
		s.interruptAndDrop(identity, sess)
		return
	}

	sess, ok := s.sessions[identity]
	if !ok {
		// bytes arrived before/without a recorded connect-notify; treat as
		// an implicit connect so the session is never nil.
		sess = newSession(s.cfg.Protocol)
		s.sessions[identity] = sess
		s.Stats.ActiveSessions.Add(1)
	}

	fed, err := sess.parser.Feed(body)
	for _, f := range fed {
		s.enqueue(identity, sess, f)
	}
	if err != nil {
		s.Stats.ProtocolErrors.Add(1)
		if resp := s.cfg.Protocol.ErrorResponse(err); resp != nil {
			s.clientSock.SendAll(transport.Message{[]byte(identity), resp}, transport.None)
		}
		s.closeSession(identity, sess)
	}
}

func (s *Server) enqueue(identity string, sess *session, f protocol.FedRequest) {
	if s.cfg.HealthCheck != nil && s.cfg.HealthCheck.Matches(f.Parsed) {
		s.Stats.HealthChecksServed.Add(1)
		s.clientSock.SendAll(transport.Message{[]byte(identity), s.cfg.HealthCheck.Response}, transport.None)
		return
	}

	s.nextID++
	info := protocol.RequestInfo{ID: s.nextID, Timestamp: uint32(time.Now().Unix())}
	key := info.Key64()

	node := s.history.pushBack(historyEntry{key: key, enqueuedAt: time.Now()})
	s.requests[key] = &requestRecord{identity: []byte(identity), node: node}
	sess.addEnqueued(key)
	s.Stats.TotalRequests.Add(1)

	s.proxySock.SendAll(transport.Message{info.Encode(), f.Bytes}, transport.None)
}

func (s *Server) interruptAndDrop(identity string, sess *session) {
	for key := range sess.enqueued {
		s.publishInterrupt(key)
		if rec, ok := s.requests[key]; ok {
			s.history.remove(rec.node)
			delete(s.requests, key)
		}
	}
	delete(s.sessions, identity)
	s.Stats.ActiveSessions.Add(-1)
}

func (s *Server) closeSession(identity string, sess *session) {
	s.clientSock.SendAll(transport.Message{[]byte(identity), nil}, transport.None)
	s.interruptAndDrop(identity, sess)
}

func (s *Server) publishInterrupt(key uint64) {
	s.interruptSock.SendAll(transport.Message{keyToInfo(key).Encode()}, transport.None)
}

func (s *Server) handleResult(msg transport.Message) {
	if len(msg) < 1 {
		return
	}
	info, err := protocol.DecodeRequestInfo(msg[0])
	if err != nil {
		return
	}
	key := info.Key64()
	rec, ok := s.requests[key]
	if !ok {
		return // client already disconnected
	}
	delete(s.requests, key)
	s.history.remove(rec.node)

	var response []byte
	if len(msg) > 1 {
		response = msg[1]
	}
	s.clientSock.SendAll(transport.Message{rec.identity, response}, transport.None)
	s.Stats.TotalResponses.Add(1)

	identity := string(rec.identity)
	if sess, ok := s.sessions[identity]; ok {
		sess.removeEnqueued(key)
	}
}

func (s *Server) scanTimeouts() {
	deadline := time.Now().Add(-s.cfg.RequestTimeout)
	for _, node := range s.history.expired(deadline) {
		key := node.entry.key
		rec, ok := s.requests[key]
		if !ok {
			s.history.remove(node)
			continue
		}
		delete(s.requests, key)
		s.history.remove(node)
		s.Stats.TimeoutsFired.Add(1)

		info := keyToInfo(key)
		resp := s.cfg.Protocol.Timeout(info)
		s.clientSock.SendAll(transport.Message{rec.identity, resp}, transport.None)
		s.publishInterrupt(key)

		if sess, ok := s.sessions[string(rec.identity)]; ok {
			sess.removeEnqueued(key)
		}
	}
}

func keyToInfo(key uint64) protocol.RequestInfo {
	return protocol.RequestInfo{ID: uint32(key >> 32), Timestamp: uint32(key)}
}
