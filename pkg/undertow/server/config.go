package server

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/undertow/pkg/undertow/http11"
	"github.com/yourusername/undertow/pkg/undertow/socket"
)

// Config holds server configuration
type Config struct {
	// Addr is the TCP address to listen on (e.g., ":8080")
	// Default: ":80"
	Addr string

	// Handler answers every parsed request. Required.
	Handler http11.Handler

	// Logger receives server and connection diagnostics.
	// Default: disabled
	Logger zerolog.Logger

	// MaxBufferSize bounds the unconsumed bytes per connection.
	// Default: 8192 bytes
	MaxBufferSize int

	// ReadChunkSize is the size of a single socket read.
	// Default: 4096 bytes
	ReadChunkSize int

	// ReadTimeout closes a connection whose read blocks longer than this.
	// Default: 0 (no timeout)
	ReadTimeout time.Duration

	// RejectMalformed answers unparseable requests with 400/405 instead of
	// dropping them silently.
	// Default: false
	RejectMalformed bool

	// Socket tunes accepted connections and the listener.
	// Default: socket.DefaultConfig()
	Socket *socket.Config

	// MaxConcurrentConnections is the maximum number of concurrent connections
	// 0 means unlimited
	// Default: 0 (unlimited)
	MaxConcurrentConnections int

	// Observer receives connection, frame and response events. Optional.
	Observer Observer

	// ConnState is called on every connection state transition. Optional.
	ConnState func(*http11.Connection, http11.ConnectionState)
}

// DefaultConfig returns the default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:          ":80",
		Logger:        zerolog.Nop(),
		MaxBufferSize: http11.DefaultMaxBufferSize,
		ReadChunkSize: http11.DefaultReadChunkSize,
		Socket:        socket.DefaultConfig(),
	}
}

// Observer extends http11.Observer with connection lifecycle events.
// Implementations must be safe for concurrent use.
type Observer interface {
	http11.Observer
	ObserveConnOpened()
	ObserveConnClosed(requests int64, d time.Duration)
}
