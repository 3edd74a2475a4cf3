// Package prime implements the "is this number prime?" demo: a parse
// stage that pulls the candidate number out of an HTTP request and a
// compute stage that answers it, wired together as a two-stage pipeline
// over the generic worker loop.
//
// The legacy reference implementation this demo traces back to shipped a
// miscompiled snippet that swapped the prime and non-prime replies; the
// corrected rule, confirmed against later revisions, is: a non-prime
// candidate gets back "2", a prime candidate gets back itself.
package prime

import (
	"strconv"

	"github.com/yourusername/primeserver/pkg/protocol"
	"github.com/yourusername/primeserver/pkg/protocol/httpproto"
	"github.com/yourusername/primeserver/pkg/worker"
)

// ParseStage extracts the "possible_prime" query parameter from an HTTP
// request and forwards it, bare, to the compute stage.
func ParseStage(payload [][]byte, info protocol.RequestInfo, interruptFn func() bool) (worker.Result, error) {
	if len(payload) == 0 {
		return worker.Result{}, errNoPayload
	}
	sess := httpproto.NewSession()
	fed, err := sess.Feed(payload[0])
	if err != nil || len(fed) == 0 {
		return worker.Result{}, errUnparseable
	}
	req := fed[0].Parsed.(*httpproto.Request)
	candidate := req.Query.Get("possible_prime")
	return worker.Result{
		Intermediate: true,
		Messages:     [][]byte{[]byte(candidate)},
	}, nil
}

// ComputeStage answers the primality question for the number the parse
// stage forwarded, and serializes an HTTP 200 response carrying the
// answer as the body.
func ComputeStage(payload [][]byte, info protocol.RequestInfo, interruptFn func() bool) (worker.Result, error) {
	if len(payload) == 0 {
		return worker.Result{}, errNoPayload
	}
	n, err := strconv.ParseInt(string(payload[0]), 10, 64)
	if err != nil {
		return worker.Result{}, errNotANumber
	}

	answer := n
	if !isPrime(n, interruptFn) {
		answer = 2
	}

	resp := &httpproto.Response{
		Code:    200,
		Reason:  "OK",
		Version: httpproto.HTTP11,
		Body:    []byte(strconv.FormatInt(answer, 10)),
	}
	resp.Headers.Add("Content-Type", "text/plain")
	resp.Headers.Add("Access-Control-Allow-Origin", "*")

	return worker.Result{
		Messages: [][]byte{httpproto.SerializeResponse(resp)},
	}, nil
}

// isPrime trial-divides up to sqrt(n), checking interruptFn periodically
// so a pathologically large candidate can still be cancelled promptly.
func isPrime(n int64, interruptFn func() bool) bool {
	if n < 2 {
		return false
	}
	if n < 4 {
		return true
	}
	if n%2 == 0 {
		return false
	}
	for i := int64(3); i*i <= n; i += 2 {
		if interruptFn != nil && i%4096 == 1 && interruptFn() {
			return false
		}
		if n%i == 0 {
			return false
		}
	}
	return true
}
