// Package httpproto implements the HTTP/1.x streaming protocol: a
// resumable parser that turns arbitrary byte chunks into complete
// Requests, a serializer, and the fixed error-response table.
//
// The parser follows the same shape as a SIP/HTTP first-line-and-header
// scanner built over an explicit offset-and-state struct rather than a
// coroutine: every Feed call can be handed a prefix of the input and
// resumed later with more bytes. bytescase does the case-insensitive
// comparisons of header names, version tokens and the Connection
// "keep-alive"/"close" values; method names match case-sensitively, and
// "chunked" is compared with strings.EqualFold.
package httpproto

import (
	"strings"

	"github.com/intuitivelabs/bytescase"
)

// Method identifies a request's HTTP method.
type Method int

const (
	MethodUnknown Method = iota
	MethodGET
	MethodHEAD
	MethodPOST
	MethodPUT
	MethodDELETE
	MethodOPTIONS
	MethodPATCH
)

var methodNames = []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"}
var methodValues = []Method{MethodGET, MethodHEAD, MethodPOST, MethodPUT, MethodDELETE, MethodOPTIONS, MethodPATCH}

// ParseMethod matches tok case-sensitively against the known method
// tokens (HTTP methods are case-sensitive per RFC 7230, unlike headers).
func ParseMethod(tok []byte) Method {
	for i, name := range methodNames {
		if len(tok) == len(name) && string(tok) == name {
			return methodValues[i]
		}
	}
	return MethodUnknown
}

func (m Method) String() string {
	for i, v := range methodValues {
		if v == m {
			return methodNames[i]
		}
	}
	return "UNKNOWN"
}

// Version identifies the HTTP version of a message.
type Version int

const (
	VersionUnknown Version = iota
	HTTP10
	HTTP11
)

func (v Version) String() string {
	switch v {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return "HTTP/?.?"
	}
}

// ParseVersion matches a version token case-insensitively, since some
// clients send lowercase "http/1.1".
func ParseVersion(tok []byte) Version {
	if bytescase.CmpEq(tok, []byte("HTTP/1.1")) {
		return HTTP11
	}
	if bytescase.CmpEq(tok, []byte("HTTP/1.0")) {
		return HTTP10
	}
	return VersionUnknown
}

// header is one name/value pair in original wire case, in arrival order.
type header struct {
	name  string
	value string
}

// Headers is an order-preserving, case-insensitive-lookup multimap,
// matching the "case-preserving map" the data model calls for: values for
// a repeated header name stay in arrival order, and the original casing
// of every name and value is retained for re-serialization.
type Headers struct {
	fields []header
}

// Add appends a name/value pair, preserving any existing values for name.
func (h *Headers) Add(name, value string) {
	h.fields = append(h.fields, header{name: name, value: value})
}

// Get returns the first value for name (case-insensitive), or "" if absent.
func (h *Headers) Get(name string) string {
	for _, f := range h.fields {
		if bytescase.CmpEq([]byte(f.name), []byte(name)) {
			return f.value
		}
	}
	return ""
}

// Has reports whether name is present (case-insensitive).
func (h *Headers) Has(name string) bool {
	for _, f := range h.fields {
		if bytescase.CmpEq([]byte(f.name), []byte(name)) {
			return true
		}
	}
	return false
}

// All returns every value for name, in arrival order.
func (h *Headers) All(name string) []string {
	var out []string
	for _, f := range h.fields {
		if bytescase.CmpEq([]byte(f.name), []byte(name)) {
			out = append(out, f.value)
		}
	}
	return out
}

// Each calls fn for every header in wire order.
func (h *Headers) Each(fn func(name, value string)) {
	for _, f := range h.fields {
		fn(f.name, f.value)
	}
}

// Query is the multi-map produced by parsing a request target's query
// string: duplicate keys accumulate into a list preserving arrival order,
// a missing value yields an empty string entry.
type Query map[string][]string

// Get returns the first value for key, or "" if absent.
func (q Query) Get(key string) string {
	v := q[key]
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// ParseTarget splits a URL-decoded request target into path and query,
// on the first '?'.
func ParseTarget(target string) (path string, query Query) {
	idx := strings.IndexByte(target, '?')
	if idx < 0 {
		return target, Query{}
	}
	path = target[:idx]
	query = parseQueryString(target[idx+1:])
	return path, query
}

func parseQueryString(raw string) Query {
	q := Query{}
	if raw == "" {
		return q
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		var key, value string
		if eq < 0 {
			key, value = pair, ""
		} else {
			key, value = pair[:eq], pair[eq+1:]
		}
		q[key] = append(q[key], value)
	}
	return q
}

// Request is a fully parsed HTTP request.
type Request struct {
	Method   Method
	Target   string // raw, URL-decoded request target
	Path     string
	Query    Query
	Version  Version
	Headers  Headers
	Body     []byte
	LogLine  string // "METHOD path HTTP/x.y" for access logs
}

// Bytes implements protocol.Request.
func (r *Request) Bytes() []byte { return Serialize(r) }

// Response is a parsed or synthesized HTTP response.
type Response struct {
	Code    int
	Reason  string
	Version Version
	Headers Headers
	Body    []byte
}
