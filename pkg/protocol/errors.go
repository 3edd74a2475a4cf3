package protocol

import (
	"errors"
	"fmt"
)

// Sentinel parse-failure kinds a Session.Feed returns. The frontend server
// maps these to a protocol's fixed error-response table; netstring has no
// table and just closes the connection.
var (
	ErrShortRequestInfo = errors.New("protocol: buffer shorter than a request-info envelope")
	ErrSizeExceeded     = errors.New("protocol: request exceeds configured maximum size")
	ErrMalformedFraming = errors.New("protocol: malformed wire framing")
	ErrUnsupportedToken = errors.New("protocol: unsupported method or version")
	ErrInternalState    = errors.New("protocol: parser reached an unexpected state")
)

// ParseError wraps one of the sentinels above with the parser state that
// produced it, for logging; callers should still branch on errors.Is
// against the sentinels, not on ParseError itself.
type ParseError struct {
	State string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("protocol: %s: %v", e.State, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
