package frontend

import "github.com/yourusername/primeserver/pkg/protocol"

// session is per-client streaming-parser state plus the set of requests
// this client currently has in flight, keyed by the 64-bit request-info
// value — exactly the bookkeeping the data model calls a Session.
type session struct {
	parser   protocol.Session
	enqueued map[uint64]struct{}
}

func newSession(p protocol.Protocol) *session {
	return &session{parser: p.NewSession(), enqueued: make(map[uint64]struct{})}
}

func (s *session) addEnqueued(key uint64) { s.enqueued[key] = struct{}{} }
func (s *session) removeEnqueued(key uint64) { delete(s.enqueued, key) }
