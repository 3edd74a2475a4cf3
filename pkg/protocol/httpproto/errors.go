package httpproto

import "errors"

var (
	errTokenTooLong     = errors.New("httpproto: method or version token exceeds limit without a delimiter")
	errUnknownMethod    = errors.New("httpproto: unsupported method")
	errUnknownVersion   = errors.New("httpproto: unsupported HTTP version")
	errMalformedHeader  = errors.New("httpproto: header line missing ':' or value")
	errBadChunkLength   = errors.New("httpproto: non-numeric chunk length")
	errBadContentLength = errors.New("httpproto: non-numeric Content-Length")
)
