// Command proxyd runs the load-balancing proxy daemon: it connects an
// upstream requests-in channel to a downstream workers channel using a
// FIFO of idle workers.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/yourusername/primeserver/internal/logging"
	"github.com/yourusername/primeserver/internal/quiesce"
	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/proxy"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: proxyd <upstream-endpoint> <downstream-endpoint> <concurrency> [drain_seconds,shutdown_seconds]")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 3 {
		usage()
		return 1
	}
	upstreamEP, downstreamEP := args[0], args[1]
	if _, err := strconv.Atoi(args[2]); err != nil {
		usage()
		return 1
	}
	drainSeconds, shutdownSeconds, err := parseDrainPair(args[3:])
	if err != nil {
		usage()
		return 1
	}

	log := logging.New("proxyd")

	cfg, err := proxy.NewBuilder().
		UpstreamEndpoint(upstreamEP).
		DownstreamEndpoint(downstreamEP).
		Build()
	if err != nil {
		log.WithError(err).Errorf("invalid configuration")
		return 1
	}

	ctx := transport.NewContext()
	p, err := proxy.New(cfg, ctx)
	if err != nil {
		log.WithError(err).Errorf("failed to bind sockets")
		return 1
	}
	defer p.Close()

	lifecycle := quiesce.New(drainSeconds, shutdownSeconds)
	stop := make(chan struct{})
	lifecycle.InstallSignalHandler(func() { close(stop) })
	defer lifecycle.Stop()

	log.Infof("proxyd routing %s -> %s", upstreamEP, downstreamEP)
	if err := p.Run(stop); err != nil {
		log.WithError(err).Errorf("proxy loop exited with error")
		return 1
	}
	return 0
}

func parseDrainPair(rest []string) (drain, shutdown int, err error) {
	if len(rest) == 0 {
		return 0, 0, nil
	}
	parts := strings.SplitN(rest[0], ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected drain_seconds,shutdown_seconds")
	}
	drain, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	shutdown, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return drain, shutdown, nil
}
