package worker

import "errors"

var (
	errMissingEndpoint = errors.New("worker: UpstreamEndpoint, LoopbackEndpoint and InterruptEndpoint are all required")
	errMissingWork      = errors.New("worker: Work function is required")
)
