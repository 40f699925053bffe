package http11

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ConnectionState represents the state of a supervised connection
type ConnectionState int32

const (
	// StateNew is the initial state when a connection is created
	StateNew ConnectionState = iota

	// StateReading indicates the connection is waiting on socket data
	StateReading

	// StateFraming indicates complete frames are being extracted and dispatched
	StateFraming

	// StateClosing indicates the connection is being torn down
	StateClosing

	// StateClosed indicates the socket and buffer have been released
	StateClosed
)

// String returns the string representation of the connection state
func (s ConnectionState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateReading:
		return "reading"
	case StateFraming:
		return "framing"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Observer receives per-connection events. Implementations must be safe
// for concurrent use by many connections.
type Observer interface {
	ObserveFrame()
	ObserveParseError(err error)
	ObserveResponse(status int, size int64)
	ObserveOverflow()
}

// ConnectionConfig holds configuration for a supervised connection
type ConnectionConfig struct {
	// MaxBufferSize bounds the unconsumed bytes held while waiting for a
	// request terminator. Default: 8192 bytes
	MaxBufferSize int

	// ReadChunkSize is the size of a single socket read.
	// Default: 4096 bytes
	ReadChunkSize int

	// ReadTimeout is the maximum time a single read may block.
	// Default: 0 (no timeout)
	ReadTimeout time.Duration

	// RejectMalformed answers frames that fail request-line validation with
	// 400 (or 405 for an unsupported method) instead of dropping them.
	// Default: false (silently dropped)
	RejectMalformed bool

	// Logger receives diagnostics. Default: disabled
	Logger zerolog.Logger

	// Observer receives frame and response events. Optional.
	Observer Observer

	// OnStateChange is called from the serving goroutine on every state
	// transition. Optional.
	OnStateChange func(*Connection, ConnectionState)
}

// DefaultConnectionConfig returns the default connection configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxBufferSize: DefaultMaxBufferSize,
		ReadChunkSize: DefaultReadChunkSize,
		Logger:        zerolog.Nop(),
	}
}

// Connection supervises one client connection: it reads from the socket,
// frames pipelined requests, parses and dispatches each in arrival order,
// and writes every response before the next read.
//
// The connection exclusively owns its socket and frame buffer. Both are
// released on every exit path of Serve.
type Connection struct {
	state    atomic.Int32
	requests atomic.Int64
	frames   atomic.Int64
	closed   atomic.Bool

	id   uuid.UUID
	conn net.Conn
	buf  *FrameBuffer

	handler Handler
	cfg     ConnectionConfig
	log     zerolog.Logger
}

// NewConnection wraps conn. Zero config fields take their defaults.
func NewConnection(conn net.Conn, cfg ConnectionConfig, handler Handler) *Connection {
	if cfg.MaxBufferSize <= 0 {
		cfg.MaxBufferSize = DefaultMaxBufferSize
	}
	if cfg.ReadChunkSize <= 0 {
		cfg.ReadChunkSize = DefaultReadChunkSize
	}

	c := &Connection{
		id:      uuid.New(),
		conn:    conn,
		buf:     NewFrameBuffer(cfg.MaxBufferSize),
		handler: handler,
		cfg:     cfg,
	}
	c.log = cfg.Logger.With().
		Str("conn_id", c.id.String()).
		Str("remote", remoteString(conn)).
		Logger()
	c.state.Store(int32(StateNew))
	return c
}

// ID returns the connection's unique identifier
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// State returns the current connection state (lock-free)
func (c *Connection) State() ConnectionState {
	return ConnectionState(c.state.Load())
}

// RequestCount returns the number of requests dispatched to the handler
func (c *Connection) RequestCount() int64 {
	return c.requests.Load()
}

// FrameCount returns the number of frames extracted, valid or not
func (c *Connection) FrameCount() int64 {
	return c.frames.Load()
}

// RemoteAddr returns the remote network address
func (c *Connection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *Connection) setState(state ConnectionState) {
	c.state.Store(int32(state))
	if c.cfg.OnStateChange != nil {
		c.cfg.OnStateChange(c, state)
	}
}

// Serve runs the read loop until the peer closes, an error occurs, the
// buffer overflows, or ctx is cancelled. A clean close by the peer returns
// nil. Unterminated data left at the end is discarded.
func (c *Connection) Serve(ctx context.Context) error {
	defer c.cleanup()

	// Unblock a pending read when the server cancels the context
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	chunk, release := getReadChunk(c.cfg.ReadChunkSize)
	defer release()

	for {
		if c.closed.Load() {
			return nil
		}

		c.setState(StateReading)
		if err := c.setDeadline(); err != nil {
			return err
		}

		n, readErr := c.buf.Fill(c.conn, chunk)
		if n > 0 {
			c.setState(StateFraming)
			if err := c.dispatchFrames(ctx); err != nil {
				return err
			}
		}

		if readErr != nil {
			return c.readError(readErr)
		}
	}
}

// readError classifies the error that ended the read loop.
func (c *Connection) readError(err error) error {
	switch {
	case errors.Is(err, ErrBufferFull):
		if c.cfg.Observer != nil {
			c.cfg.Observer.ObserveOverflow()
		}
		c.log.Debug().Int("buffered", c.buf.Buffered()).Msg("request exceeds buffer capacity, closing")
		return err
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrNoProgress):
		c.log.Debug().Msg("client disconnected")
		return nil
	case c.closed.Load() || errors.Is(err, net.ErrClosed):
		return nil
	default:
		c.log.Debug().Err(err).Msg("client disconnected or error")
		return fmt.Errorf("http11: read: %w", err)
	}
}

// dispatchFrames parses and answers every complete frame in the buffer,
// in order. A write failure stops dispatch and is returned.
func (c *Connection) dispatchFrames(ctx context.Context) error {
	for frame := range c.buf.Frames() {
		c.frames.Add(1)
		if c.cfg.Observer != nil {
			c.cfg.Observer.ObserveFrame()
		}

		req, err := ParseRequest(frame)
		if err != nil {
			if c.cfg.Observer != nil {
				c.cfg.Observer.ObserveParseError(err)
			}
			c.log.Debug().Err(err).Msg("dropping unparseable request")
			if !c.cfg.RejectMalformed {
				continue
			}
			if err := c.write(rejectResponse(err)); err != nil {
				return err
			}
			continue
		}

		req.RemoteAddr = remoteString(c.conn)
		c.requests.Add(1)
		c.log.Debug().Str("path", req.Path).Msg("parsed pipelined request")

		if err := c.write(c.handler.ServeRequest(ctx, req)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Connection) write(resp Response) error {
	n, err := WriteResponse(c.conn, resp)
	if err != nil {
		c.log.Error().Err(err).Int("status", resp.Status).Msg("write response")
		return err
	}
	if c.cfg.Observer != nil {
		c.cfg.Observer.ObserveResponse(resp.Status, n)
	}
	return nil
}

// rejectResponse maps a parse failure to a 4xx response.
func rejectResponse(err error) Response {
	if errors.Is(err, ErrUnsupportedMethod) {
		return HTMLResponse(405, "<html><body>405 Method Not Allowed</body></html>")
	}
	return HTMLResponse(400, "<html><body>400 Bad Request</body></html>")
}

// setDeadline arms the per-read idle timeout, if configured
func (c *Connection) setDeadline() error {
	if c.cfg.ReadTimeout > 0 {
		return c.conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	}
	return nil
}

// Close closes the underlying socket. It is safe to call from any
// goroutine and more than once; a blocked Serve returns promptly.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

// cleanup releases the socket and buffer
func (c *Connection) cleanup() {
	c.setState(StateClosing)
	if err := c.Close(); err != nil {
		c.log.Debug().Err(err).Msg("close")
	}
	c.buf.Release()
	c.setState(StateClosed)
}

func remoteString(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}
