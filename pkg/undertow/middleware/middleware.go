// Package middleware provides handler wrappers shared by all routes:
// panic recovery, access logging and timing instrumentation.
package middleware

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

// Middleware wraps a handler.
type Middleware func(next http11.Handler) http11.Handler

// Chain wraps h with mws so that mws[0] is the outermost.
func Chain(h http11.Handler, mws ...Middleware) http11.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// internalErrorBody is returned after a recovered panic
const internalErrorBody = "<html><body>500 Internal Server Error</body></html>"

// Recovery returns a middleware that recovers from panics in the handler.
//
// When a panic occurs:
//   - Logs the panic value and stack trace at error level
//   - Returns 500 Internal Server Error to the client
//   - Leaves the connection usable for the next pipelined request
func Recovery(logger zerolog.Logger) Middleware {
	return RecoveryWithConfig(RecoveryConfig{Logger: logger, PrintStack: true})
}

// RecoveryConfig defines configuration for the recovery middleware.
type RecoveryConfig struct {
	// Logger receives the panic report
	Logger zerolog.Logger

	// PrintStack attaches the stack trace to the report
	PrintStack bool

	// StackSize truncates the stack trace (default: 4KB)
	StackSize int
}

// RecoveryWithConfig returns a recovery middleware with custom configuration.
func RecoveryWithConfig(config RecoveryConfig) Middleware {
	if config.StackSize == 0 {
		config.StackSize = 4 << 10
	}

	return func(next http11.Handler) http11.Handler {
		return http11.HandlerFunc(func(ctx context.Context, req *http11.Request) (resp http11.Response) {
			defer func() {
				if r := recover(); r != nil {
					ev := config.Logger.Error().
						Str("path", req.Path).
						Str("panic", fmt.Sprint(r))
					if config.PrintStack {
						stack := debug.Stack()
						if len(stack) > config.StackSize {
							stack = stack[:config.StackSize]
						}
						ev = ev.Bytes("stack", stack)
					}
					ev.Msg("handler panic recovered")

					resp = http11.HTMLResponse(500, internalErrorBody)
				}
			}()
			return next.ServeRequest(ctx, req)
		})
	}
}

// AccessLog returns a middleware that logs each request at debug level:
// method, path, status, response size and duration.
func AccessLog(logger zerolog.Logger) Middleware {
	return func(next http11.Handler) http11.Handler {
		return http11.HandlerFunc(func(ctx context.Context, req *http11.Request) http11.Response {
			start := time.Now()
			resp := next.ServeRequest(ctx, req)

			logger.Debug().
				Str("method", req.Method).
				Str("path", req.Path).
				Str("remote", req.RemoteAddr).
				Int("status", resp.Status).
				Int("bytes", len(resp.Body)).
				Dur("duration", time.Since(start)).
				Msg("request")
			return resp
		})
	}
}

// HandlerObserver records handler outcomes.
type HandlerObserver interface {
	ObserveHandler(route string, status int, d time.Duration)
}

// Instrument returns a middleware that reports status and duration for
// route to obs. A nil obs disables instrumentation.
func Instrument(obs HandlerObserver, route string) Middleware {
	return func(next http11.Handler) http11.Handler {
		if obs == nil {
			return next
		}
		return http11.HandlerFunc(func(ctx context.Context, req *http11.Request) http11.Response {
			start := time.Now()
			resp := next.ServeRequest(ctx, req)
			obs.ObserveHandler(route, resp.Status, time.Since(start))
			return resp
		})
	}
}
