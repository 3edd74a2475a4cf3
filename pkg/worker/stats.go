package worker

import "sync/atomic"

// Stats are the worker's running counters.
type Stats struct {
	Advertisements atomic.Uint64
	JobsCompleted  atomic.Uint64
}
