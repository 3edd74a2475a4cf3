// Command client is the batching client used to exercise a frontend:
// it reads newline-delimited input from stdin, turns each line into a
// request for the selected protocol, and prints each response body to
// stdout on its own line.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/batchclient"
	"github.com/yourusername/primeserver/pkg/protocol"
	"github.com/yourusername/primeserver/pkg/protocol/httpproto"
	"github.com/yourusername/primeserver/pkg/protocol/netstring"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: client [-proto http|netstring] [-batch-size N] <client-endpoint>")
	fmt.Fprintln(os.Stderr, "  reads lines from stdin: for -proto http, each line is a candidate number")
	fmt.Fprintln(os.Stderr, "  for -proto netstring, each line is sent verbatim as the entity body")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	protoName := "http"
	batchSize := 0
	for len(args) > 0 {
		switch args[0] {
		case "-proto":
			if len(args) < 2 {
				usage()
				return 1
			}
			protoName = args[1]
			args = args[2:]
		case "-batch-size":
			if len(args) < 2 {
				usage()
				return 1
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				usage()
				return 1
			}
			batchSize = n
			args = args[2:]
		default:
			goto positional
		}
	}
positional:
	if len(args) < 1 {
		usage()
		return 1
	}
	endpoint := args[0]

	proto, encode, err := selectProtocol(protoName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client:", err)
		return 1
	}

	ctx := transport.NewContext()
	c, err := batchclient.Dial(batchclient.Config{
		Endpoint:  endpoint,
		Protocol:  proto,
		BatchSize: batchSize,
	}, ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "client: dial:", err)
		return 1
	}
	defer c.Close()

	in := bufio.NewScanner(os.Stdin)
	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	sent, received := 0, 0
	requestFn := func() []byte {
		if !in.Scan() {
			return nil
		}
		sent++
		return encode(in.Text())
	}
	collectFn := func(body []byte) bool {
		out.Write(body)
		out.WriteByte('\n')
		received++
		return true
	}

	for {
		if err := c.Run(requestFn, collectFn); err != nil {
			fmt.Fprintln(os.Stderr, "client: run:", err)
			return 1
		}
		if received >= sent {
			return 0
		}
		time.Sleep(time.Millisecond)
	}
}

// selectProtocol returns the wire protocol and a function turning one
// line of stdin input into a serialized request body for it.
func selectProtocol(name string) (protocol.Protocol, func(line string) []byte, error) {
	switch name {
	case "http":
		return httpproto.New(0), encodePrimeRequest, nil
	case "netstring":
		return netstring.New(0), func(line string) []byte { return netstring.Serialize([]byte(line)) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown protocol %q", name)
	}
}

func encodePrimeRequest(candidate string) []byte {
	req := &httpproto.Request{
		Method:  httpproto.MethodGET,
		Path:    "/",
		Query:   map[string][]string{"possible_prime": {candidate}},
		Version: httpproto.HTTP11,
	}
	req.Headers.Add("Host", "localhost")
	req.Headers.Add("Connection", "keep-alive")
	return httpproto.Serialize(req)
}
