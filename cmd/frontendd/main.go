// Command frontendd runs the frontend server daemon: it owns the
// client-facing stream socket and pipes parsed requests to a proxy,
// routing worker responses back to the originating client.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/primeserver/internal/logging"
	"github.com/yourusername/primeserver/internal/quiesce"
	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/frontend"
	"github.com/yourusername/primeserver/pkg/protocol"
	"github.com/yourusername/primeserver/pkg/protocol/httpproto"
	"github.com/yourusername/primeserver/pkg/protocol/netstring"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: frontendd [-proto http|netstring] <client-endpoint> <upstream-proxy-endpoint> "+
		"<result-endpoint> <interrupt-endpoint> <concurrency> [drain_seconds,shutdown_seconds]")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	protoName := "http"
	for len(args) > 0 && args[0] == "-proto" {
		if len(args) < 2 {
			usage()
			return 1
		}
		protoName = args[1]
		args = args[2:]
	}
	if len(args) < 5 {
		usage()
		return 1
	}
	clientEP, upstreamEP, resultEP, interruptEP := args[0], args[1], args[2], args[3]
	if _, err := strconv.Atoi(args[4]); err != nil {
		usage()
		return 1
	}
	drainSeconds, shutdownSeconds, err := parseDrainPair(args[5:])
	if err != nil {
		usage()
		return 1
	}

	log := logging.New("frontendd")

	proto := selectProtocol(protoName)
	if proto == nil {
		fmt.Fprintf(os.Stderr, "frontendd: unknown protocol %q\n", protoName)
		return 1
	}

	cfg, err := frontend.NewBuilder(proto).
		ClientEndpoint(clientEP).
		ProxyEndpoint(upstreamEP).
		ResultEndpoint(resultEP).
		InterruptEndpoint(interruptEP).
		RequestTimeout(30 * time.Second).
		Build()
	if err != nil {
		log.WithError(err).Errorf("invalid configuration")
		return 1
	}

	ctx := transport.NewContext()
	srv, err := frontend.New(cfg, ctx)
	if err != nil {
		log.WithError(err).Errorf("failed to bind/connect sockets")
		return 1
	}
	defer srv.Close()

	lifecycle := quiesce.New(drainSeconds, shutdownSeconds)
	stop := make(chan struct{})
	lifecycle.InstallSignalHandler(func() { close(stop) })
	defer lifecycle.Stop()
	srv.Lifecycle = lifecycle

	log.Infof("frontendd listening on %s (proxy=%s result=%s interrupt=%s)", clientEP, upstreamEP, resultEP, interruptEP)
	if err := srv.Run(stop); err != nil {
		log.WithError(err).Errorf("server loop exited with error")
		return 1
	}
	return 0
}

func selectProtocol(name string) protocol.Protocol {
	switch name {
	case "http":
		return httpproto.New(0)
	case "netstring":
		return netstring.New(0)
	default:
		return nil
	}
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
