package httpproto

import "strconv"

// statusTable is the fixed set of synthesized error responses the frontend
// server falls back to on a parse failure or timeout. Every entry carries
// Access-Control-Allow-Origin: * so browser-originated health checks and
// the demo UI don't need a separate CORS layer.
var statusTable = map[int]string{
	400: "Bad Request",
	413: "Request Entity Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// ErrorResponse builds the fixed wire response for one of the statuses in
// statusTable, ready to hand to a client socket.
func ErrorResponse(code int) []byte {
	reason, ok := statusTable[code]
	if !ok {
		reason, code = "Internal Server Error", 500
	}
	body := reason + "\n"
	resp := &Response{
		Code:    code,
		Reason:  reason,
		Version: HTTP11,
		Body:    []byte(body),
	}
	resp.Headers.Add("Content-Type", "text/plain")
	resp.Headers.Add("Access-Control-Allow-Origin", "*")
	resp.Headers.Add("Content-Length", strconv.Itoa(len(body)))
	return SerializeResponse(resp)
}
