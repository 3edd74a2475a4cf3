package proxy

import "errors"

var errMissingEndpoint = errors.New("proxy: UpstreamEndpoint and DownstreamEndpoint are both required")
