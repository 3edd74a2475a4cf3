// Command workerd runs N independent worker loops (one per requested
// concurrency unit), each with its own sockets, connected to the same
// upstream/downstream proxies and loopback/interrupt channels.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/primeserver/internal/logging"
	"github.com/yourusername/primeserver/internal/quiesce"
	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/demo/prime"
	"github.com/yourusername/primeserver/pkg/worker"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: workerd -stage parse|compute <upstream-endpoint> <downstream-endpoint-or-'-'> "+
		"<loopback-endpoint> <interrupt-endpoint> <concurrency> [drain_seconds,shutdown_seconds]")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	stage := "compute"
	for len(args) > 0 && args[0] == "-stage" {
		if len(args) < 2 {
			usage()
			return 1
		}
		stage = args[1]
		args = args[2:]
	}
	if len(args) < 5 {
		usage()
		return 1
	}
	upstreamEP, downstreamEP, loopbackEP, interruptEP := args[0], args[1], args[2], args[3]
	concurrency, err := strconv.Atoi(args[4])
	if err != nil || concurrency < 1 {
		usage()
		return 1
	}
	drainSeconds, shutdownSeconds, err := parseDrainPair(args[5:])
	if err != nil {
		usage()
		return 1
	}
	if downstreamEP == "-" {
		downstreamEP = ""
	}

	log := logging.New("workerd")

	workFn, err := selectWork(stage)
	if err != nil {
		fmt.Fprintln(os.Stderr, "workerd:", err)
		return 1
	}

	ctx := transport.NewContext()
	lifecycle := quiesce.New(drainSeconds, shutdownSeconds)
	stop := make(chan struct{})
	lifecycle.InstallSignalHandler(func() { close(stop) })
	defer lifecycle.Stop()

	var wg sync.WaitGroup
	errCh := make(chan error, concurrency)
	for i := 0; i < concurrency; i++ {
		cfg, err := worker.NewBuilder(workFn).
			UpstreamEndpoint(upstreamEP).
			DownstreamEndpoint(downstreamEP).
			LoopbackEndpoint(loopbackEP).
			InterruptEndpoint(interruptEP).
			HeartbeatInterval(5 * time.Second).
			InitialHeartbeat([]byte(fmt.Sprintf("%s-%d", stage, i))).
			Build()
		if err != nil {
			log.WithError(err).Errorf("invalid configuration")
			return 1
		}
		w, err := worker.New(cfg, ctx)
		if err != nil {
			log.WithError(err).Errorf("failed to connect worker %d", i)
			return 1
		}
		wg.Add(1)
		go func(w *worker.Worker) {
			defer wg.Done()
			defer w.Close()
			if err := w.Run(stop); err != nil {
				errCh <- err
			}
		}(w)
	}

	log.Infof("workerd running %d %s-stage worker(s) on %s", concurrency, stage, upstreamEP)
	wg.Wait()
	close(errCh)
	if err, ok := <-errCh; ok {
		log.WithError(err).Errorf("a worker loop exited with error")
		return 1
	}
	return 0
}

func selectWork(stage string) (worker.WorkFunc, error) {
	switch stage {
	case "parse":
		return prime.ParseStage, nil
	case "compute":
		return prime.ComputeStage, nil
	default:
		return nil, fmt.Errorf("unknown stage %q", stage)
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
