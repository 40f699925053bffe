//go:build linux

package socket

import (
	"golang.org/x/sys/unix"
)

const (
	// deferAcceptSeconds bounds how long the kernel holds a silent connection.
	deferAcceptSeconds = 5

	// fastOpenQueue is the pending TFO request queue length.
	fastOpenQueue = 256

	// keepalive probe timing once idle time has elapsed
	keepAliveInterval = 10
	keepAliveCount    = 3
)

// applyPlatformOptions applies Linux-specific per-connection options.
//
// TCP_QUICKACK is not sticky: the kernel may fall back to delayed ACKs later.
// Setting it once at accept covers the first request, which is the one that
// benefits most.
func applyPlatformOptions(fd int, cfg *Config) {
	if cfg.QuickAck {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}
	if cfg.KeepAlive {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, keepAliveInterval)
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, keepAliveCount)
	}
}

// applyListenerOptions applies Linux-specific listener options before bind.
// SO_REUSEPORT failures are returned since binding would then conflict;
// the others are advisory.
func applyListenerOptions(fd int, cfg *Config) error {
	if cfg.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return err
		}
	}
	if cfg.DeferAccept {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, deferAcceptSeconds)
	}
	if cfg.FastOpen {
		// Kernel may have TFO disabled; not fatal.
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_FASTOPEN, fastOpenQueue)
	}
	return nil
}
