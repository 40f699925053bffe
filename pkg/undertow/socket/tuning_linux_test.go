//go:build linux

package socket

import (
	"context"
	"net"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestListenReusePort(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReusePort = true

	first, err := Listen(context.Background(), "tcp", "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer first.Close()

	second, err := Listen(context.Background(), "tcp", first.Addr().String(), cfg)
	if err != nil {
		t.Fatalf("second Listen on %s failed: %v", first.Addr(), err)
	}
	second.Close()
}

func TestApplySetsNoDelay(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer ln.Close()

	server, _ := acceptPair(t, ln)
	if err := Apply(server, DefaultConfig()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	raw, err := server.(*net.TCPConn).SyscallConn()
	if err != nil {
		t.Fatal(err)
	}
	var nodelay, keepalive int
	var optErr error
	raw.Control(func(fd uintptr) {
		nodelay, optErr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY)
		if optErr == nil {
			keepalive, optErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE)
		}
	})
	if optErr != nil {
		t.Fatalf("getsockopt: %v", optErr)
	}
	if nodelay == 0 {
		t.Error("TCP_NODELAY not set")
	}
	if keepalive == 0 {
		t.Error("SO_KEEPALIVE not set")
	}
}

func TestListenDeferAccept(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeferAccept = true

	ln, err := Listen(context.Background(), "tcp", "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer ln.Close()

	raw, err := ln.(*net.TCPListener).SyscallConn()
	if err != nil {
		t.Fatal(err)
	}
	var deferAccept int
	var optErr error
	raw.Control(func(fd uintptr) {
		deferAccept, optErr = unix.GetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT)
	})
	if optErr != nil {
		t.Fatalf("getsockopt: %v", optErr)
	}
	if deferAccept == 0 {
		t.Error("TCP_DEFER_ACCEPT not set on listener")
	}

	// The kernel holds the connection until the client sends data.
	client, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()
	if _, err := client.Write([]byte("G")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			accepted <- nil
			return
		}
		accepted <- c
	}()

	select {
	case c := <-accepted:
		if c == nil {
			t.Fatal("Accept failed")
		}
		defer c.Close()
		buf := make([]byte, 1)
		c.SetReadDeadline(time.Now().Add(2 * time.Second))
		if _, err := c.Read(buf); err != nil || buf[0] != 'G' {
			t.Errorf("Read = %q, %v", buf, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for accept after data was sent")
	}
}
