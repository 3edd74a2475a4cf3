package proxy

import "sync/atomic"

// Stats are the proxy's running counters.
type Stats struct {
	JobsDispatched   atomic.Uint64
	WorkersAdvertised atomic.Uint64
	PreferenceHits   atomic.Uint64
	PreferenceMisses atomic.Uint64
}
