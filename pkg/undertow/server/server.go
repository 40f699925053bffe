// Package server accepts TCP connections and serves each one on its own
// goroutine with an http11.Connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/undertow/pkg/undertow/http11"
	"github.com/yourusername/undertow/pkg/undertow/middleware"
	"github.com/yourusername/undertow/pkg/undertow/socket"
)

// ErrServerClosed is returned by Serve and ListenAndServe after Shutdown
// or Close.
var ErrServerClosed = errors.New("server: closed")

// shutdownPollInterval is how often Shutdown looks for idle connections
const shutdownPollInterval = 50 * time.Millisecond

// Server accepts connections and supervises one worker per connection.
// Workers share only the handler and the configuration.
type Server struct {
	config  Config
	handler http11.Handler
	log     zerolog.Logger
	stats   Stats

	mu       sync.Mutex
	listener net.Listener

	// Shutdown coordination
	shutdown  atomic.Bool
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
	baseCtx   context.Context
	cancelCtx context.CancelFunc

	// Connection tracking
	conns   map[*http11.Connection]struct{}
	connsMu sync.Mutex

	// Connection semaphore (for limiting concurrent connections)
	connSem chan struct{}
}

// New creates a server. Zero config fields take their defaults.
// It panics if config.Handler is nil.
func New(config Config) *Server {
	if config.Handler == nil {
		panic("server: Handler is required")
	}

	if config.Addr == "" {
		config.Addr = ":80"
	}
	if config.MaxBufferSize <= 0 {
		config.MaxBufferSize = http11.DefaultMaxBufferSize
	}
	if config.ReadChunkSize <= 0 {
		config.ReadChunkSize = http11.DefaultReadChunkSize
	}
	if config.Socket == nil {
		config.Socket = socket.DefaultConfig()
	}

	s := &Server{
		config:  config,
		handler: middleware.Recovery(config.Logger)(config.Handler),
		log:     config.Logger,
		done:    make(chan struct{}),
		conns:   make(map[*http11.Connection]struct{}),
	}
	s.baseCtx, s.cancelCtx = context.WithCancel(context.Background())
	s.stats.StartTime = time.Now()

	if config.MaxConcurrentConnections > 0 {
		s.connSem = make(chan struct{}, config.MaxConcurrentConnections)
	}
	return s
}

// Stats returns server statistics
func (s *Server) Stats() *Stats {
	return &s.stats
}

// Addr returns the listener address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe listens on the configured address and serves requests
func (s *Server) ListenAndServe() error {
	ln, err := socket.Listen(s.baseCtx, "tcp", s.config.Addr, s.config.Socket)
	if err != nil {
		return fmt.Errorf("server: listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts incoming connections on l until Shutdown or Close.
// It always returns a non-nil error; after Shutdown or Close it is
// ErrServerClosed.
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.shutdown.Load() {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.listener = l
	s.mu.Unlock()
	defer l.Close()

	if tcp, ok := l.Addr().(*net.TCPAddr); ok {
		s.log.Info().Int("port", tcp.Port).Msgf("Server listening on port %d...", tcp.Port)
	} else {
		s.log.Info().Str("addr", l.Addr().String()).Msg("Server listening")
	}

	var backoff time.Duration
	for {
		// Acquire connection slot if limit is set
		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.done:
				return ErrServerClosed
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if s.connSem != nil {
				<-s.connSem
			}
			if s.shutdown.Load() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}

			s.stats.AcceptErrors.Add(1)
			backoff = nextBackoff(backoff)
			s.log.Error().Err(err).Dur("retry_in", backoff).Msg("accept")
			select {
			case <-time.After(backoff):
			case <-s.done:
				return ErrServerClosed
			}
			continue
		}
		backoff = 0

		// Registering under mu orders wg.Add before a concurrent Shutdown's Wait.
		s.mu.Lock()
		if s.shutdown.Load() {
			s.mu.Unlock()
			conn.Close()
			if s.connSem != nil {
				<-s.connSem
			}
			return ErrServerClosed
		}
		s.wg.Add(1)
		s.mu.Unlock()

		s.stats.TotalConnections.Add(1)
		go s.handleConnection(conn)
	}
}

// nextBackoff doubles d from 5ms up to 1s.
func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		d = time.Second
	}
	return d
}

// handleConnection serves one accepted connection until it closes.
func (s *Server) handleConnection(netConn net.Conn) {
	defer s.wg.Done()
	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	start := time.Now()
	s.log.Debug().Msgf("Accepted connection from %s", netConn.RemoteAddr())

	if err := socket.Apply(netConn, s.config.Socket); err != nil {
		s.log.Debug().Err(err).Msg("socket tuning")
	}

	connConfig := http11.ConnectionConfig{
		MaxBufferSize:   s.config.MaxBufferSize,
		ReadChunkSize:   s.config.ReadChunkSize,
		ReadTimeout:     s.config.ReadTimeout,
		RejectMalformed: s.config.RejectMalformed,
		Logger:          s.log,
		OnStateChange:   s.config.ConnState,
	}
	if s.config.Observer != nil {
		connConfig.Observer = s.config.Observer
	}

	conn := http11.NewConnection(netConn, connConfig, s.handler)
	s.trackConnection(conn)
	defer s.untrackConnection(conn)

	if s.config.Observer != nil {
		s.config.Observer.ObserveConnOpened()
		defer func() {
			s.config.Observer.ObserveConnClosed(conn.RequestCount(), time.Since(start))
		}()
	}

	err := conn.Serve(s.baseCtx)
	s.stats.TotalRequests.Add(uint64(conn.RequestCount()))
	if err != nil {
		s.stats.ConnectionErrors.Add(1)
		s.log.Debug().Err(err).Str("conn_id", conn.ID().String()).Msg("connection closed with error")
	}
}

// trackConnection adds a connection to tracking
func (s *Server) trackConnection(conn *http11.Connection) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()

	s.stats.ActiveConnections.Add(1)
}

// untrackConnection removes a connection from tracking
func (s *Server) untrackConnection(conn *http11.Connection) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()

	s.stats.ActiveConnections.Add(-1)
}

// closeIdleConnections closes connections blocked waiting for a request.
// A connection that is dispatching finishes its responses first and is
// picked up by a later pass.
func (s *Server) closeIdleConnections() {
	s.connsMu.Lock()
	idle := make([]*http11.Connection, 0, len(s.conns))
	for conn := range s.conns {
		if conn.State() == http11.StateReading {
			idle = append(idle, conn)
		}
	}
	s.connsMu.Unlock()

	for _, conn := range idle {
		conn.Close()
	}
}

// stopAccepting closes the listener and signals the accept loop.
func (s *Server) stopAccepting() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.shutdown.Store(true)
		if s.listener != nil {
			s.listener.Close()
		}
		s.mu.Unlock()
		close(s.done)
	})
}

// Shutdown stops accepting, then closes connections as they become idle
// and waits for all workers to exit. If ctx expires first, the remaining
// connections are closed, in-flight handlers are cancelled, and ctx.Err()
// is returned after the workers exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stopAccepting()

	finished := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(finished)
	}()

	ticker := time.NewTicker(shutdownPollInterval)
	defer ticker.Stop()

	for {
		s.closeIdleConnections()
		select {
		case <-finished:
			s.cancelCtx()
			return nil
		case <-ctx.Done():
			s.cancelCtx()
			<-finished
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close immediately closes the listener and all connections, then waits
// for the workers to exit.
func (s *Server) Close() error {
	s.stopAccepting()
	s.cancelCtx()
	s.wg.Wait()
	return nil
}
