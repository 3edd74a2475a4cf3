// Package worker implements the worker loop: connects to one proxy
// upstream, optionally another proxy downstream for multi-stage
// pipelines, publishes terminal results on the loopback, listens for
// interrupts, and advertises readiness via heartbeats.
//
// Interrupts travel over PUB/SUB, so a worker whose interrupt socket
// connects after an interrupt was published never receives it.
package worker

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/yourusername/primeserver/internal/logging"
	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/protocol"
)

// Result is what a WorkFunc returns for one job.
type Result struct {
	// Intermediate, when true, forwards Messages to the downstream proxy
	// instead of publishing a terminal result on the loopback.
	Intermediate bool
	Messages     [][]byte
	// Heartbeat replaces the worker's advertised tag for its next
	// advertisement, letting a job's outcome steer future routing.
	Heartbeat []byte
}

// WorkFunc processes one job. interruptFn lets long-running work poll for
// cancellation; it returns true once the current job has been interrupted.
type WorkFunc func(payload [][]byte, info protocol.RequestInfo, interruptFn func() bool) (Result, error)

// ErrInterrupted is returned by a WorkFunc when the current job's
// interrupt key has arrived on the interrupt channel. A job whose key
// arrived before it started is skipped by the loop without calling
// WorkFunc and without producing this error.
var ErrInterrupted = fmt.Errorf("worker: job interrupted")

// CleanupFunc runs after every job, interrupted or not, before the next
// advertise().
type CleanupFunc func()

// Config holds everything a Worker needs to run.
type Config struct {
	UpstreamEndpoint   string // dealer, connects; recv jobs, send heartbeats
	DownstreamEndpoint string // dealer, connects; forwards intermediate work (optional, multi-stage only)
	LoopbackEndpoint   string // pub, connects; publishes terminal results
	InterruptEndpoint  string // sub, connects; subscribes to interrupts

	HeartbeatInterval time.Duration // default 5s
	InitialHeartbeat  []byte

	Work    WorkFunc
	Cleanup CleanupFunc
}

// Builder provides a fluent API for constructing a Config.
type Builder struct {
	cfg Config
}

func NewBuilder(work WorkFunc) *Builder {
	return &Builder{cfg: Config{Work: work, HeartbeatInterval: 5 * time.Second}}
}

func (b *Builder) UpstreamEndpoint(ep string) *Builder   { b.cfg.UpstreamEndpoint = ep; return b }
func (b *Builder) DownstreamEndpoint(ep string) *Builder { b.cfg.DownstreamEndpoint = ep; return b }
func (b *Builder) LoopbackEndpoint(ep string) *Builder   { b.cfg.LoopbackEndpoint = ep; return b }
func (b *Builder) InterruptEndpoint(ep string) *Builder  { b.cfg.InterruptEndpoint = ep; return b }
func (b *Builder) HeartbeatInterval(d time.Duration) *Builder {
	b.cfg.HeartbeatInterval = d
	return b
}
func (b *Builder) InitialHeartbeat(tag []byte) *Builder { b.cfg.InitialHeartbeat = tag; return b }
func (b *Builder) WithCleanup(fn CleanupFunc) *Builder  { b.cfg.Cleanup = fn; return b }

func (b *Builder) Build() (Config, error) {
	if b.cfg.UpstreamEndpoint == "" || b.cfg.LoopbackEndpoint == "" || b.cfg.InterruptEndpoint == "" {
		return Config{}, errMissingEndpoint
	}
	if b.cfg.Work == nil {
		return Config{}, errMissingWork
	}
	return b.cfg, nil
}

// Worker is one instance of the worker loop.
type Worker struct {
	cfg Config

	upstream   transport.Socket
	downstream transport.Socket // nil unless DownstreamEndpoint is set
	loopback   transport.Socket
	interrupt  transport.Socket

	heartbeat    []byte
	interruptSet map[uint64]struct{}

	Stats Stats
	log   *logging.Logger
}

// New connects the worker's sockets and returns a ready Worker.
func New(cfg Config, ctx *transport.Context) (*Worker, error) {
	w := &Worker{
		cfg:          cfg,
		heartbeat:    cfg.InitialHeartbeat,
		interruptSet: make(map[uint64]struct{}),
		log:          logging.New("worker"),
	}
	w.upstream = ctx.NewSocket(transport.Dealer)
	if err := w.upstream.Connect(cfg.UpstreamEndpoint); err != nil {
		return nil, err
	}
	if cfg.DownstreamEndpoint != "" {
		w.downstream = ctx.NewSocket(transport.Dealer)
		if err := w.downstream.Connect(cfg.DownstreamEndpoint); err != nil {
			return nil, err
		}
	}
	w.loopback = ctx.NewSocket(transport.Pub)
	if err := w.loopback.Connect(cfg.LoopbackEndpoint); err != nil {
		return nil, err
	}
	w.interrupt = ctx.NewSocket(transport.Sub)
	if err := w.interrupt.Connect(cfg.InterruptEndpoint); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Worker) Close() error {
	w.upstream.Close()
	if w.downstream != nil {
		w.downstream.Close()
	}
	w.loopback.Close()
	w.interrupt.Close()
	return nil
}

func (w *Worker) advertise() {
	w.upstream.SendAll(transport.Message{w.heartbeat}, transport.None)
	w.Stats.Advertisements.Add(1)
}

func (w *Worker) drainInterrupts() {
	for {
		msg, ok, err := w.interrupt.RecvAll(transport.DontWait)
		if err != nil || !ok {
			return
		}
		if len(msg) == 0 {
			continue
		}
		info, err := protocol.DecodeRequestInfo(msg[0])
		if err != nil {
			continue
		}
		w.interruptSet[info.Key64()] = struct{}{}
	}
}

// Run executes the worker's loop until stop is closed.
func (w *Worker) Run(stop <-chan struct{}) error {
	w.advertise()
	for {
		select {
		case <-stop:
			return nil
		default:
		}

		items := []transport.PollItem{{Socket: w.upstream}, {Socket: w.interrupt}}
		if _, err := transport.Poll(items, w.cfg.HeartbeatInterval); err != nil {
			return err
		}
		if items[1].Fired {
			w.drainInterrupts()
		}
		if items[0].Fired {
			w.handleJob()
		} else {
			w.advertise()
		}
	}
}

func (w *Worker) handleJob() {
	msg, ok, err := w.upstream.RecvAll(transport.DontWait)
	if err != nil || !ok || len(msg) == 0 {
		return
	}
	info, err := protocol.DecodeRequestInfo(msg[0])
	if err != nil {
		w.log.Warnf("dropping job with malformed request-info: %v", err)
		return
	}
	payload := msg[1:]
	currentJob := info.Key64()

	w.drainInterrupts()
	if _, interrupted := w.interruptSet[currentJob]; interrupted {
		w.log.Warnf("job %d interrupted before work started", currentJob)
		delete(w.interruptSet, currentJob)
		w.cleanup()
		w.advertise()
		return
	}

	result, err := w.invokeWork(payload, info, currentJob)
	if err != nil {
		if err == ErrInterrupted {
			w.log.Warnf("job %d interrupted during work: %v", currentJob, err)
		} else {
			w.log.WithError(err).Errorf("work failed for job %d", currentJob)
		}
		delete(w.interruptSet, currentJob)
		w.cleanup()
		w.advertise()
		return
	}

	w.heartbeat = result.Heartbeat
	w.publishResult(info, result)

	delete(w.interruptSet, currentJob)
	w.cleanup()
	w.drainInterrupts()
	w.advertise()
}

// invokeWork calls the user function with panic recovery, so a bug in one
// job's handler can't take down the worker loop.
func (w *Worker) invokeWork(payload [][]byte, info protocol.RequestInfo, currentJob uint64) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.log.Errorf("panic in work for job %d: %v\n%s", currentJob, r, debug.Stack())
			err = fmt.Errorf("worker: panic: %v", r)
		}
	}()
	interruptFn := func() bool {
		w.drainInterrupts()
		_, interrupted := w.interruptSet[currentJob]
		return interrupted
	}
	return w.cfg.Work(payload, info, interruptFn)
}

func (w *Worker) publishResult(info protocol.RequestInfo, result Result) {
	if result.Intermediate {
		if w.downstream == nil {
			w.log.Errorf("job %d returned an intermediate result but no downstream is configured", info.Key64())
			return
		}
		out := make(transport.Message, 0, len(result.Messages)+1)
		out = append(out, info.Encode())
		out = append(out, result.Messages...)
		w.downstream.SendAll(out, transport.None)
		return
	}

	var first []byte
	if len(result.Messages) > 0 {
		first = result.Messages[0]
		if len(result.Messages) > 1 {
			w.log.Warnf("job %d produced %d messages; only the first is used", info.Key64(), len(result.Messages))
		}
	}
	w.loopback.SendAll(transport.Message{info.Encode(), first}, transport.None)
	w.Stats.JobsCompleted.Add(1)
}

func (w *Worker) cleanup() {
	if w.cfg.Cleanup != nil {
		w.cfg.Cleanup()
	}
}
