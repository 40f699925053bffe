// Package http11 implements the HTTP/1.1 framing and pipelining engine:
// the per-connection frame buffer, the request-line parser, the response
// writer and the connection supervisor that ties them together.
package http11

// Framing limits
const (
	// DefaultMaxBufferSize bounds the unconsumed bytes a connection may hold
	// while waiting for a request terminator.
	DefaultMaxBufferSize = 8192

	// DefaultReadChunkSize is the size of a single socket read.
	DefaultReadChunkSize = 4096
)

// Request-line token limits (bytes)
const (
	MaxMethodLen  = 7
	MaxPathLen    = 1023
	MaxVersionLen = 15
)

// The only method and protocol version this engine serves.
const (
	SupportedMethod  = "GET"
	SupportedVersion = "HTTP/1.1"
)

// Content types used by the engine itself
const (
	ContentTypeHTML  = "text/html"
	ContentTypePlain = "text/plain"
)

var (
	// terminator ends a request message (empty line after the headers)
	terminator = []byte("\r\n\r\n")
	crlfBytes  = []byte("\r\n")

	http11Prefix        = []byte("HTTP/1.1 ")
	headerContentType   = []byte("Content-Type: ")
	headerContentLength = []byte("Content-Length: ")
	headerConnClose     = []byte("Connection: close\r\n")
)
