package http11

import (
	"errors"
	"fmt"
)

// Framing errors
var (
	// ErrBufferFull indicates the connection buffer reached its capacity
	// before a request terminator was seen. The connection must be closed.
	ErrBufferFull = errors.New("http11: connection buffer full before request terminator")

	// ErrInvalidBufferSize indicates a non-positive buffer capacity
	ErrInvalidBufferSize = errors.New("http11: buffer size must be positive")
)

// Parser errors
var (
	// ErrMalformedRequestLine indicates the request line did not split into
	// exactly three tokens: METHOD SP PATH SP VERSION
	ErrMalformedRequestLine = errors.New("http11: malformed request line")

	// ErrTokenTooLong indicates a request-line token exceeded its limit
	ErrTokenTooLong = errors.New("http11: request-line token too long")

	// ErrUnsupportedVersion indicates a version other than HTTP/1.1
	ErrUnsupportedVersion = errors.New("http11: unsupported protocol version")

	// ErrUnsupportedMethod indicates a method other than GET
	ErrUnsupportedMethod = errors.New("http11: unsupported method")
)

// Connection errors
var (
	// ErrConnectionClosed indicates the connection has been closed
	ErrConnectionClosed = errors.New("http11: connection closed")
)

// ParseError is returned by ParseRequest for every rejected frame.
// Callers are expected to treat all parse errors alike; Err carries the
// reason for logging.
type ParseError struct {
	// Err is one of the parser sentinel errors
	Err error

	// Line is the offending request line (possibly truncated)
	Line string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Line)
}

// Unwrap returns the underlying sentinel.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// WriteError wraps a failed response write.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "http11: write response: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
