// Package quiesce implements the SIGTERM drain/shutdown protocol as an
// explicit lifecycle object owned by main, not a package-level singleton:
// on SIGTERM, wait drainSeconds before flipping draining, then
// shutdownSeconds more before flipping shuttingDown (and invoking the
// caller's exit hook). IsDraining/IsShuttingDown report the state; the
// daemons in cmd/ act only on the exit hook.
package quiesce

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// Lifecycle tracks a daemon's drain/shutdown state.
type Lifecycle struct {
	drainSeconds   int
	shutdownSeconds int

	draining      atomic.Bool
	shuttingDown  atomic.Bool
	sigCh         chan os.Signal
	stopCh        chan struct{}
}

// New returns a Lifecycle configured with the drain and shutdown windows
// a daemon was started with (0,0 disables the timed protocol entirely:
// draining and shutting-down flip immediately on signal).
func New(drainSeconds, shutdownSeconds int) *Lifecycle {
	return &Lifecycle{
		drainSeconds:    drainSeconds,
		shutdownSeconds: shutdownSeconds,
		stopCh:          make(chan struct{}),
	}
}

// InstallSignalHandler arms a SIGTERM/SIGINT handler that runs the
// drain-then-shutdown timeline, invoking onShutdown once shuttingDown
// flips true. Call Stop to disarm before process exit under normal
// control flow (e.g. in tests).
func (l *Lifecycle) InstallSignalHandler(onShutdown func()) {
	l.sigCh = make(chan os.Signal, 1)
	signal.Notify(l.sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-l.sigCh:
		case <-l.stopCh:
			return
		}
		l.runTimeline(onShutdown)
	}()
}

func (l *Lifecycle) runTimeline(onShutdown func()) {
	if l.drainSeconds > 0 {
		select {
		case <-time.After(time.Duration(l.drainSeconds) * time.Second):
		case <-l.stopCh:
			return
		}
	}
	l.draining.Store(true)

	if l.shutdownSeconds > 0 {
		select {
		case <-time.After(time.Duration(l.shutdownSeconds) * time.Second):
		case <-l.stopCh:
			return
		}
	}
	l.shuttingDown.Store(true)
	if onShutdown != nil {
		onShutdown()
	}
}

// IsDraining reports whether the daemon should stop accepting new work
// but keep completing in-flight requests.
func (l *Lifecycle) IsDraining() bool { return l.draining.Load() }

// IsShuttingDown reports whether the daemon should complete its exit.
func (l *Lifecycle) IsShuttingDown() bool { return l.shuttingDown.Load() }

// Stop disarms the signal handler and any in-progress timeline wait,
// without flipping draining/shuttingDown.
func (l *Lifecycle) Stop() {
	close(l.stopCh)
	if l.sigCh != nil {
		signal.Stop(l.sigCh)
	}
}
