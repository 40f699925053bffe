// Package socket applies TCP tuning to accepted connections and listeners.
//
// Portable options go through the net package. Linux-only options
// (TCP_QUICKACK, TCP_DEFER_ACCEPT, TCP_FASTOPEN, keepalive probe timing,
// SO_REUSEPORT) are set in tuning_linux.go and ignored elsewhere.
package socket

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"
)

// Config represents socket tuning configuration.
// Zero values mean "use system defaults".
type Config struct {
	// TCP_NODELAY - Disable Nagle's algorithm.
	// Responses are written in one call, so there is nothing to coalesce.
	NoDelay bool

	// SO_RCVBUF / SO_SNDBUF in bytes. 0 keeps the kernel default.
	RecvBuffer int
	SendBuffer int

	// SO_KEEPALIVE and the idle time before the first probe.
	KeepAlive       bool
	KeepAlivePeriod time.Duration

	// TCP_QUICKACK - Send immediate ACKs (Linux only)
	QuickAck bool

	// TCP_DEFER_ACCEPT - Don't return from accept until data arrives (Linux only)
	DeferAccept bool

	// TCP_FASTOPEN - Accept data in the SYN (Linux only)
	FastOpen bool

	// SO_REUSEPORT - Allow several listeners on one port (Linux only)
	ReusePort bool
}

// DefaultConfig returns the configuration used by the server.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:         true,
		KeepAlive:       true,
		KeepAlivePeriod: 60 * time.Second,
		QuickAck:        true,
	}
}

// LowLatencyConfig favours immediate ACKs and early data over batching.
func LowLatencyConfig() *Config {
	return &Config{
		NoDelay:         true,
		RecvBuffer:      128 * 1024,
		SendBuffer:      128 * 1024,
		KeepAlive:       true,
		KeepAlivePeriod: 60 * time.Second,
		QuickAck:        true,
		FastOpen:        true,
	}
}

// Apply tunes an accepted connection. Connections that are not TCP (for
// example in-memory pipes) are left untouched.
//
// A failure to set TCP_NODELAY is returned. Platform-specific options are
// best effort.
func Apply(conn net.Conn, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetNoDelay(cfg.NoDelay); err != nil {
		return err
	}
	if cfg.RecvBuffer > 0 {
		_ = tcpConn.SetReadBuffer(cfg.RecvBuffer)
	}
	if cfg.SendBuffer > 0 {
		_ = tcpConn.SetWriteBuffer(cfg.SendBuffer)
	}
	if cfg.KeepAlive {
		_ = tcpConn.SetKeepAliveConfig(net.KeepAliveConfig{
			Enable: true,
			Idle:   cfg.KeepAlivePeriod,
		})
	}

	rawConn, err := tcpConn.SyscallConn()
	if err != nil {
		return err
	}
	return rawConn.Control(func(fd uintptr) {
		applyPlatformOptions(int(fd), cfg)
	})
}

// Listen opens a TCP listener with the listener-level options in cfg applied
// before bind.
func Listen(ctx context.Context, network, addr string, cfg *Config) (net.Listener, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var optErr error
			err := c.Control(func(fd uintptr) {
				optErr = applyListenerOptions(int(fd), cfg)
			})
			return errors.Join(err, optErr)
		},
	}
	if cfg.KeepAlive {
		lc.KeepAlive = cfg.KeepAlivePeriod
	} else {
		lc.KeepAlive = -1
	}

	return lc.Listen(ctx, network, addr)
}
