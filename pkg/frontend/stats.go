package frontend

import "sync/atomic"

// Stats are the server's running counters, safe for concurrent read while
// the server's own loop is the sole writer.
type Stats struct {
	TotalRequests      atomic.Uint64
	ActiveSessions     atomic.Int64
	TotalResponses     atomic.Uint64
	ProtocolErrors     atomic.Uint64
	TimeoutsFired      atomic.Uint64
	HealthChecksServed atomic.Uint64
}
