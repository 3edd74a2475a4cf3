package httpproto

import (
	"strconv"
	"strings"
)

// Serialize renders req back onto the wire: method, URL-encoded
// path+query, version, headers (synthesizing Content-Length if a
// non-empty body is present and the header is absent), blank line, body.
func Serialize(req *Request) []byte {
	var b strings.Builder
	b.WriteString(req.Method.String())
	b.WriteByte(' ')
	b.WriteString(encodeTarget(req.Path, req.Query))
	b.WriteByte(' ')
	b.WriteString(req.Version.String())
	b.WriteString("\r\n")

	wroteLength := false
	req.Headers.Each(func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
		if strings.EqualFold(name, "Content-Length") {
			wroteLength = true
		}
	})
	if !wroteLength && len(req.Body) > 0 {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(req.Body)))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	out := []byte(b.String())
	if len(req.Body) > 0 {
		out = append(out, req.Body...)
	}
	return out
}

func encodeTarget(path string, query Query) string {
	if len(query) == 0 {
		return URLEncode(path)
	}
	var b strings.Builder
	b.WriteString(URLEncode(path))
	b.WriteByte('?')
	first := true
	for k, values := range query {
		for _, v := range values {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(URLEncode(k))
			if v != "" {
				b.WriteByte('=')
				b.WriteString(URLEncode(v))
			}
		}
	}
	return b.String()
}

// SerializeResponse renders resp onto the wire. Unlike Serialize, it
// always writes a Content-Length header (unless resp already carries one),
// even for an empty body.
func SerializeResponse(resp *Response) []byte {
	var b strings.Builder
	b.WriteString(resp.Version.String())
	b.WriteByte(' ')
	b.WriteString(strconv.Itoa(resp.Code))
	b.WriteByte(' ')
	b.WriteString(resp.Reason)
	b.WriteString("\r\n")

	wroteLength := false
	resp.Headers.Each(func(name, value string) {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
		if strings.EqualFold(name, "Content-Length") {
			wroteLength = true
		}
	})
	if !wroteLength {
		b.WriteString("Content-Length: ")
		b.WriteString(strconv.Itoa(len(resp.Body)))
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	out := []byte(b.String())
	out = append(out, resp.Body...)
	return out
}
