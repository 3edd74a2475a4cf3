package httpproto

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yourusername/primeserver/pkg/protocol"
)

type parserState int

const (
	stMethod parserState = iota
	stPath
	stVersion
	stHeaders
	stBody
	stChunkLength
	stChunk
	stTrailer
)

const (
	defaultMaxRequestSize = 64 << 10 // 64KiB, overridable via NewSessionWithLimit
	defaultMaxTokenLen    = 64       // method/version token ceiling before a bare 400
)

// Session is the resumable HTTP/1.x parser: an explicit
// {state, partial buffer, body length, bytes consumed} struct, not a
// suspended coroutine, so Feed can be called with arbitrarily sized
// chunks and resumed exactly where the last call left off.
type Session struct {
	Parser // request-in-progress fields, reset after each emit

	buf            []byte
	maxRequestSize int
	maxTokenLen    int
}

// Parser holds the fields of the request currently being assembled.
// Session embeds it and clears it after each completed request.
type Parser struct {
	state             parserState
	method            Method
	target            string
	version           Version
	headers           Headers
	contentLength     int
	haveContentLength bool
	chunked           bool
	bodyBuf           []byte
	consumed          int // bytes already sliced off buf for this request
}

// NewSession returns a fresh parser with the default size limits.
func NewSession() *Session {
	return &Session{maxRequestSize: defaultMaxRequestSize, maxTokenLen: defaultMaxTokenLen}
}

// NewSessionWithLimit returns a fresh parser capped at maxRequestSize bytes
// per request, the limit a Server configures from its own options.
func NewSessionWithLimit(maxRequestSize int) *Session {
	return &Session{maxRequestSize: maxRequestSize, maxTokenLen: defaultMaxTokenLen}
}

func (s *Session) reset() {
	s.Parser = Parser{}
}

// tooBig checks the cumulative size of the request in progress: bytes
// already sliced off buf by consume(), plus pending bytes the caller knows
// belong to the same request (the rest of a still-undelimited token while
// stalled waiting for more input). Checked after every consume() with
// pending=0 too, so a request assembled from many small, individually
// well-formed tokens is caught even though buf itself never grows past
// maxRequestSize — consumed is the running total across the whole request,
// not just what's currently buffered. pending is deliberately never
// len(s.buf) after a consume: once a token/line/chunk is consumed, any
// bytes left in buf may belong to the next pipelined request, not this one.
func (s *Session) tooBig(pending int) bool {
	return s.consumed+pending > s.maxRequestSize
}

// httpError pairs a parse failure with the status it should produce.
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }
func (e *httpError) Unwrap() error { return e.err }

// StatusOf extracts the HTTP status code a Feed error should be reported
// as, defaulting to 500 for anything that isn't a tagged httpError.
func StatusOf(err error) int {
	if he, ok := err.(*httpError); ok {
		return he.code
	}
	return 500
}

// Feed implements protocol.Session. It consumes as much of buf as forms
// complete requests, buffering any remainder internally, and returns every
// request completed by this call.
func (s *Session) Feed(buf []byte) ([]protocol.FedRequest, error) {
	s.buf = append(s.buf, buf...)
	var out []protocol.FedRequest
	for {
		progressed, req, err := s.step()
		if err != nil {
			return out, err
		}
		if req != nil {
			out = append(out, protocol.FedRequest{Bytes: req.Bytes(), Parsed: req})
			continue
		}
		if !progressed {
			return out, nil
		}
	}
}

// step attempts one state transition. progressed is false when the buffer
// doesn't yet hold enough to advance (caller should wait for more bytes).
func (s *Session) step() (progressed bool, completed *Request, err error) {
	switch s.state {
	case stMethod:
		idx := bytes.IndexByte(s.buf, ' ')
		if idx < 0 {
			if len(s.buf) > s.maxTokenLen {
				return false, nil, &httpError{400, errTokenTooLong}
			}
			return false, nil, nil
		}
		m := ParseMethod(s.buf[:idx])
		if m == MethodUnknown {
			return false, nil, &httpError{501, errUnknownMethod}
		}
		s.method = m
		s.consume(idx + 1)
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		s.state = stPath
		return true, nil, nil

	case stPath:
		idx := bytes.IndexByte(s.buf, ' ')
		if idx < 0 {
			if s.tooBig(len(s.buf)) {
				return false, nil, &httpError{413, protocol.ErrSizeExceeded}
			}
			return false, nil, nil
		}
		s.target = URLDecode(string(s.buf[:idx]))
		s.consume(idx + 1)
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		s.state = stVersion
		return true, nil, nil

	case stVersion:
		idx := bytes.Index(s.buf, crlf)
		if idx < 0 {
			if len(s.buf) > s.maxTokenLen {
				return false, nil, &httpError{400, errTokenTooLong}
			}
			return false, nil, nil
		}
		v := ParseVersion(s.buf[:idx])
		if v == VersionUnknown {
			return false, nil, &httpError{505, errUnknownVersion}
		}
		s.version = v
		s.consume(idx + 2)
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		s.state = stHeaders
		return true, nil, nil

	case stHeaders:
		idx := bytes.Index(s.buf, crlf)
		if idx < 0 {
			if s.tooBig(len(s.buf)) {
				return false, nil, &httpError{413, protocol.ErrSizeExceeded}
			}
			return false, nil, nil
		}
		if idx == 0 {
			s.consume(2)
			req, err := s.enterBody()
			return true, req, err
		}
		line := s.buf[:idx]
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return false, nil, &httpError{400, errMalformedHeader}
		}
		name := strings.TrimSpace(string(line[:colon]))
		value := strings.TrimSpace(string(line[colon+1:]))
		if name == "" || value == "" {
			return false, nil, &httpError{400, errMalformedHeader}
		}
		s.headers.Add(name, value)
		s.consume(idx + 2)
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		return true, nil, nil

	case stBody:
		if len(s.buf) < s.contentLength {
			if s.tooBig(len(s.buf)) {
				return false, nil, &httpError{413, protocol.ErrSizeExceeded}
			}
			return false, nil, nil
		}
		s.bodyBuf = append(s.bodyBuf, s.buf[:s.contentLength]...)
		s.consume(s.contentLength)
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		return true, s.emit(), nil

	case stChunkLength:
		idx := bytes.Index(s.buf, crlf)
		if idx < 0 {
			if s.tooBig(len(s.buf)) {
				return false, nil, &httpError{413, protocol.ErrSizeExceeded}
			}
			return false, nil, nil
		}
		tok := s.buf[:idx]
		if semi := bytes.IndexByte(tok, ';'); semi >= 0 {
			tok = tok[:semi] // ignore chunk extensions
		}
		n, err := strconv.ParseUint(strings.TrimSpace(string(tok)), 16, 32)
		if err != nil {
			return false, nil, &httpError{400, errBadChunkLength}
		}
		s.consume(idx + 2)
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		if n == 0 {
			s.state = stTrailer
			return true, nil, nil
		}
		s.contentLength = int(n)
		s.state = stChunk
		return true, nil, nil

	case stChunk:
		need := s.contentLength + 2
		if len(s.buf) < need {
			if s.tooBig(len(s.buf)) {
				return false, nil, &httpError{413, protocol.ErrSizeExceeded}
			}
			return false, nil, nil
		}
		s.bodyBuf = append(s.bodyBuf, s.buf[:s.contentLength]...)
		s.consume(need)
		s.state = stChunkLength
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		return true, nil, nil

	case stTrailer:
		idx := bytes.Index(s.buf, crlf)
		if idx < 0 {
			if s.tooBig(len(s.buf)) {
				return false, nil, &httpError{413, protocol.ErrSizeExceeded}
			}
			return false, nil, nil
		}
		s.consume(idx + 2)
		if idx == 0 {
			return true, s.emit(), nil
		}
		if s.tooBig(0) {
			return false, nil, &httpError{413, protocol.ErrSizeExceeded}
		}
		return true, nil, nil // trailer header line, discarded
	}
	return false, nil, &httpError{500, protocol.ErrInternalState}
}

func (s *Session) consume(n int) {
	s.buf = s.buf[n:]
	s.consumed += n
}

// enterBody picks BODY vs CHUNK_LENGTH per the Content-Length /
// Transfer-Encoding headers, or completes immediately if neither is set.
func (s *Session) enterBody() (*Request, error) {
	if te := s.headers.Get("Transfer-Encoding"); strings.EqualFold(te, "chunked") {
		s.chunked = true
		s.state = stChunkLength
		return nil, nil
	}
	if cl := s.headers.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return nil, &httpError{400, errBadContentLength}
		}
		s.haveContentLength = true
		s.contentLength = n
		if n == 0 {
			return s.emit(), nil
		}
		s.state = stBody
		return nil, nil
	}
	return s.emit(), nil
}

func (s *Session) emit() *Request {
	path, query := ParseTarget(s.target)
	req := &Request{
		Method:  s.method,
		Target:  s.target,
		Path:    path,
		Query:   query,
		Version: s.version,
		Headers: s.headers,
		Body:    s.bodyBuf,
		LogLine: s.method.String() + " " + s.target + " " + s.version.String(),
	}
	s.reset()
	return req
}

var crlf = []byte("\r\n")
