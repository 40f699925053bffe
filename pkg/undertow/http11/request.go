package http11

import (
	"context"
	"strings"
)

// Request is a validated request line plus its raw header lines.
//
// Method and Version always hold SupportedMethod and SupportedVersion.
// Path is untrusted client input and is not decoded; handlers that map it
// onto resources are responsible for their own validation.
type Request struct {
	Method  string
	Path    string
	Version string

	// Headers are the header lines exactly as received, without CRLF
	Headers []string

	// RemoteAddr is the network address of the client, set by the
	// connection that framed the request
	RemoteAddr string
}

// PathSuffix returns the path with prefix removed and whether the path
// started with prefix.
func (r *Request) PathSuffix(prefix string) (string, bool) {
	return strings.CutPrefix(r.Path, prefix)
}

// Response is a fully buffered response.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// HTMLResponse builds a text/html response.
func HTMLResponse(status int, body string) Response {
	return Response{Status: status, ContentType: ContentTypeHTML, Body: []byte(body)}
}

// Handler produces the response for one validated request.
// ServeRequest must not retain req after returning.
type Handler interface {
	ServeRequest(ctx context.Context, req *Request) Response
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, req *Request) Response

// ServeRequest calls f(ctx, req).
func (f HandlerFunc) ServeRequest(ctx context.Context, req *Request) Response {
	return f(ctx, req)
}
