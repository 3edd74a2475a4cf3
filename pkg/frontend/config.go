package frontend

import (
	"time"

	"github.com/yourusername/primeserver/pkg/protocol"
)

// HealthCheck lets the server short-circuit a request without ever
// engaging the proxy: if Matches returns true, Response is sent straight
// back to the client.
type HealthCheck struct {
	Matches  func(req interface{}) bool
	Response []byte
}

// Config holds everything a Server needs to run.
type Config struct {
	ClientEndpoint    string // stream socket, server binds
	ProxyEndpoint     string // dealer socket, connects to the first proxy's upstream
	ResultEndpoint    string // sub socket, server binds, workers publish/connect here
	InterruptEndpoint string // pub socket, server binds, workers connect & subscribe

	Protocol protocol.Protocol

	// RequestTimeout, if non-zero, bounds how long a request may sit
	// waiting for a worker response before the server synthesizes a
	// timeout reply and interrupts it. Zero disables timeout scanning.
	RequestTimeout time.Duration

	HealthCheck *HealthCheck
}

// Builder provides a fluent API for constructing a Config.
type Builder struct {
	cfg Config
	err error
}

// NewBuilder starts a Config with no timeout and no health check.
func NewBuilder(proto protocol.Protocol) *Builder {
	return &Builder{cfg: Config{Protocol: proto}}
}

func (b *Builder) ClientEndpoint(ep string) *Builder    { b.cfg.ClientEndpoint = ep; return b }
func (b *Builder) ProxyEndpoint(ep string) *Builder     { b.cfg.ProxyEndpoint = ep; return b }
func (b *Builder) ResultEndpoint(ep string) *Builder    { b.cfg.ResultEndpoint = ep; return b }
func (b *Builder) InterruptEndpoint(ep string) *Builder { b.cfg.InterruptEndpoint = ep; return b }

func (b *Builder) RequestTimeout(d time.Duration) *Builder {
	b.cfg.RequestTimeout = d
	return b
}

func (b *Builder) WithHealthCheck(hc *HealthCheck) *Builder {
	b.cfg.HealthCheck = hc
	return b
}

// Build validates the required endpoints are set and returns the Config.
func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return Config{}, b.err
	}
	if b.cfg.ClientEndpoint == "" || b.cfg.ProxyEndpoint == "" || b.cfg.ResultEndpoint == "" || b.cfg.InterruptEndpoint == "" {
		return Config{}, errMissingEndpoint
	}
	return b.cfg, nil
}
