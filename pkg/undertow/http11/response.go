package http11

import (
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// HTTP Status Lines - pre-rendered for the codes this server emits
var (
	status200Bytes = []byte("HTTP/1.1 200 OK\r\n")
	status400Bytes = []byte("HTTP/1.1 400 Bad Request\r\n")
	status403Bytes = []byte("HTTP/1.1 403 Forbidden\r\n")
	status404Bytes = []byte("HTTP/1.1 404 Not Found\r\n")
	status405Bytes = []byte("HTTP/1.1 405 Method Not Allowed\r\n")
	status500Bytes = []byte("HTTP/1.1 500 Internal Server Error\r\n")
	status503Bytes = []byte("HTTP/1.1 503 Service Unavailable\r\n")
)

// StatusText returns the reason phrase for code.
// Codes outside the table map to "Unknown".
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 403:
		return "Forbidden"
	case 404:
		return "Not Found"
	case 405:
		return "Method Not Allowed"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// appendStatusLine appends "HTTP/1.1 CODE REASON\r\n".
func appendStatusLine(dst []byte, code int) []byte {
	switch code {
	case 200:
		return append(dst, status200Bytes...)
	case 400:
		return append(dst, status400Bytes...)
	case 403:
		return append(dst, status403Bytes...)
	case 404:
		return append(dst, status404Bytes...)
	case 405:
		return append(dst, status405Bytes...)
	case 500:
		return append(dst, status500Bytes...)
	case 503:
		return append(dst, status503Bytes...)
	}

	dst = append(dst, http11Prefix...)
	dst = strconv.AppendInt(dst, int64(code), 10)
	dst = append(dst, ' ')
	dst = append(dst, StatusText(code)...)
	return append(dst, crlfBytes...)
}

// AppendResponse renders a complete response onto dst:
//
//	HTTP/1.1 CODE REASON
//	Content-Type: <contentType>
//	Content-Length: <len(body)>
//	Connection: close
//
//	<body>
//
// Content-Length is always the exact byte length of body.
func AppendResponse(dst []byte, status int, contentType string, body []byte) []byte {
	dst = appendStatusLine(dst, status)

	dst = append(dst, headerContentType...)
	dst = append(dst, contentType...)
	dst = append(dst, crlfBytes...)

	dst = append(dst, headerContentLength...)
	dst = strconv.AppendInt(dst, int64(len(body)), 10)
	dst = append(dst, crlfBytes...)

	dst = append(dst, headerConnClose...)
	dst = append(dst, crlfBytes...)

	return append(dst, body...)
}

// WriteResponse renders resp into a pooled buffer and writes it to w with
// a single Write call. A failed or short write is returned as *WriteError.
func WriteResponse(w io.Writer, resp Response) (int64, error) {
	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	bb.B = AppendResponse(bb.B[:0], resp.Status, resp.ContentType, resp.Body)

	n, err := w.Write(bb.B)
	if err == nil && n < len(bb.B) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return int64(n), &WriteError{Err: err}
	}
	return int64(n), nil
}
