package proxy

// FIFOView is the read-only view of the idle-worker queue handed to a
// ChooseFunc: it can inspect heartbeats in FIFO order but cannot mutate
// the queue directly.
type FIFOView interface {
	// Each walks idle workers oldest-first.
	Each(fn func(heartbeat []byte))
}

type fifoView struct{ f *workerFIFO }

func (v fifoView) Each(fn func(heartbeat []byte)) {
	v.f.Each(func(n *workerNode) { fn(n.heartbeat) })
}

// ChooseFunc biases job dispatch toward a worker whose heartbeat matches
// payload. Returning nil (or a heartbeat not currently in the FIFO) means
// "don't care" — the proxy falls back to the head of the FIFO.
type ChooseFunc func(fifo FIFOView, payload [][]byte) (heartbeat []byte)

// Config holds everything a Proxy needs to run.
type Config struct {
	UpstreamEndpoint   string // router socket, proxy binds; requests arrive here
	DownstreamEndpoint string // router socket, proxy binds; workers connect here

	// Choose, if set, is consulted for every upstream job before falling
	// back to strict FIFO order.
	Choose ChooseFunc
}

// Builder provides a fluent API for constructing a Config.
type Builder struct {
	cfg Config
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) UpstreamEndpoint(ep string) *Builder   { b.cfg.UpstreamEndpoint = ep; return b }
func (b *Builder) DownstreamEndpoint(ep string) *Builder { b.cfg.DownstreamEndpoint = ep; return b }
func (b *Builder) WithChoose(fn ChooseFunc) *Builder     { b.cfg.Choose = fn; return b }

func (b *Builder) Build() (Config, error) {
	if b.cfg.UpstreamEndpoint == "" || b.cfg.DownstreamEndpoint == "" {
		return Config{}, errMissingEndpoint
	}
	return b.cfg, nil
}
