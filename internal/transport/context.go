package transport

import (
	"fmt"
	"strings"
)

// Context is the opaque transport context sockets are created from. A
// single Context owns the inproc:// registry shared by every socket it
// creates; tcp:// sockets ignore the registry and talk real network I/O.
type Context struct {
	inproc *registry
}

// NewContext creates a fresh transport context.
func NewContext() *Context {
	return &Context{inproc: newRegistry()}
}

func splitEndpoint(endpoint string) (scheme, rest string, err error) {
	idx := strings.Index(endpoint, "://")
	if idx < 0 {
		return "", "", fmt.Errorf("transport: malformed endpoint %q", endpoint)
	}
	return endpoint[:idx], endpoint[idx+3:], nil
}

// NewSocket creates a socket of the given kind on this context. Bind or
// Connect then selects the concrete backend (inproc or tcp) based on the
// endpoint's scheme.
func (c *Context) NewSocket(kind Kind) Socket {
	return &socket{ctx: c, kind: kind}
}
