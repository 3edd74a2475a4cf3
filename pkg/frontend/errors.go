package frontend

import "errors"

var errMissingEndpoint = errors.New("frontend: ClientEndpoint, ProxyEndpoint, ResultEndpoint and InterruptEndpoint are all required")
