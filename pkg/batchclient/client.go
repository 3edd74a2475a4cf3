// Package batchclient implements the batching client used for tests and
// submission: it opens a raw stream connection and alternately submits up
// to N requests and drains parsed responses until a user-supplied
// predicate signals completion.
package batchclient

import (
	"github.com/yourusername/primeserver/internal/transport"
	"github.com/yourusername/primeserver/pkg/protocol"
)

// RequestFunc produces the next request to send, or nil to signal "no
// more to produce" for this batch.
type RequestFunc func() []byte

// CollectFunc receives one complete response body; returning false exits
// the client's outer request/collect loop once the current batch drains.
type CollectFunc func(body []byte) (more bool)

const defaultBatchSize = 8192

// Config holds everything a Client needs to run.
type Config struct {
	Endpoint  string
	Protocol  protocol.Protocol
	BatchSize int // defaults to defaultBatchSize
}

// Client is a connected batching client.
type Client struct {
	cfg       Config
	sock      transport.Socket
	identity  []byte
	collector protocol.ResponseCollector
}

// Dial connects to cfg.Endpoint and blocks until the connect-notify frame
// provides this client's identity.
func Dial(cfg Config, ctx *transport.Context) (*Client, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	sock := ctx.NewSocket(transport.Stream)
	if err := sock.Connect(cfg.Endpoint); err != nil {
		return nil, err
	}
	c := &Client{cfg: cfg, sock: sock, collector: cfg.Protocol.NewResponseCollector()}

	msg, _, err := sock.RecvAll(transport.None)
	if err != nil {
		return nil, err
	}
	if len(msg) > 0 {
		c.identity = append([]byte(nil), msg[0]...)
	}
	return c, nil
}

func (c *Client) Close() error { return c.sock.Close() }

// Run alternates request and collect phases. It returns as soon as
// collectFn returns false, or after the collect phase that follows a
// request phase in which requestFn sent nothing. It does not wait for
// responses still outstanding at that point; a caller expecting more
// calls Run again.
func (c *Client) Run(requestFn RequestFunc, collectFn CollectFunc) error {
	for {
		sent, err := c.requestPhase(requestFn)
		if err != nil {
			return err
		}
		more, err := c.collectPhase(collectFn)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if sent == 0 {
			return nil
		}
	}
}

// requestPhase calls requestFn up to BatchSize times, sending each
// non-empty result; it stops early the first time requestFn yields nil.
func (c *Client) requestPhase(requestFn RequestFunc) (sent int, err error) {
	for i := 0; i < c.cfg.BatchSize; i++ {
		body := requestFn()
		if body == nil {
			return sent, nil
		}
		if err := c.sock.SendAll(transport.Message{c.identity, body}, transport.None); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// collectPhase drains every response frame currently available and feeds
// it through the protocol's response collector, until collectFn returns
// false or no more frames are immediately available.
func (c *Client) collectPhase(collectFn CollectFunc) (more bool, err error) {
	more = true
	for more {
		msg, ok, err := c.sock.RecvAll(transport.DontWait)
		if err != nil {
			return false, err
		}
		if !ok {
			return more, nil
		}
		if len(msg) < 2 {
			continue
		}
		c.collector.Feed(msg[1], func(body []byte) bool {
			more = collectFn(body)
			return more
		})
	}
	return more, nil
}
