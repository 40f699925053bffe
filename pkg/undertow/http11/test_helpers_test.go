package http11

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// mockConn implements net.Conn for testing. Each Read returns the next
// scripted chunk; when chunks run out, Read returns readErr (io.EOF by default).
type mockConn struct {
	mu       sync.Mutex
	chunks   [][]byte
	readErr  error
	writeErr error
	written  bytes.Buffer
	writes   int
	closed   bool
	deadline time.Time
}

func newMockConn(chunks ...string) *mockConn {
	m := &mockConn{readErr: io.EOF}
	for _, c := range chunks {
		m.chunks = append(m.chunks, []byte(c))
	}
	return m
}

func (m *mockConn) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, net.ErrClosed
	}
	if len(m.chunks) == 0 {
		return 0, m.readErr
	}
	n := copy(b, m.chunks[0])
	if n < len(m.chunks[0]) {
		m.chunks[0] = m.chunks[0][n:]
	} else {
		m.chunks = m.chunks[1:]
	}
	return n, nil
}

func (m *mockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	m.writes++
	return m.written.Write(b)
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockConn) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConn) output() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written.String()
}

func (m *mockConn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 8080}
}

func (m *mockConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 12345}
}

func (m *mockConn) SetDeadline(t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deadline = t
	return nil
}

func (m *mockConn) SetReadDeadline(t time.Time) error {
	return m.SetDeadline(t)
}

func (m *mockConn) SetWriteDeadline(t time.Time) error {
	return m.SetDeadline(t)
}

// echoHandler answers 200 with the request path as body.
var echoHandler = HandlerFunc(func(ctx context.Context, req *Request) Response {
	return Response{Status: 200, ContentType: ContentTypePlain, Body: []byte(req.Path)}
})

// getRequest renders a minimal valid request for path.
func getRequest(path string) string {
	return "GET " + path + " HTTP/1.1\r\nHost: localhost\r\n\r\n"
}

// splitResponses splits concatenated responses on the status line.
func splitResponses(out string) []string {
	parts := strings.Split(out, "HTTP/1.1 ")
	var responses []string
	for _, p := range parts {
		if p != "" {
			responses = append(responses, "HTTP/1.1 "+p)
		}
	}
	return responses
}

// recordingObserver counts Observer events.
type recordingObserver struct {
	mu          sync.Mutex
	frames      int
	parseErrors []error
	statuses    []int
	overflows   int
}

func (o *recordingObserver) ObserveFrame() {
	o.mu.Lock()
	o.frames++
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveParseError(err error) {
	o.mu.Lock()
	o.parseErrors = append(o.parseErrors, err)
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveResponse(status int, size int64) {
	o.mu.Lock()
	o.statuses = append(o.statuses, status)
	o.mu.Unlock()
}

func (o *recordingObserver) ObserveOverflow() {
	o.mu.Lock()
	o.overflows++
	o.mu.Unlock()
}

var errBrokenPipe = errors.New("broken pipe")
