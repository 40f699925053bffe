package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

// DefaultMaxSleep is the longest delay /sleep/ accepts.
const DefaultMaxSleep = 10 * time.Second

const msgShuttingDown = "503 Service Unavailable"

// Sleep delays the owning connection for /sleep/{n} seconds.
type Sleep struct {
	// Max bounds n. Zero means DefaultMaxSleep.
	Max time.Duration

	// Wait blocks for d or until ctx is done. Nil means a timer wait.
	Wait func(ctx context.Context, d time.Duration) error
}

// ServeRequest implements http11.Handler.
func (s *Sleep) ServeRequest(ctx context.Context, req *http11.Request) http11.Response {
	limit := s.Max
	if limit <= 0 {
		limit = DefaultMaxSleep
	}
	maxSeconds := int(limit / time.Second)

	rest, _ := req.PathSuffix(SleepPrefix)
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 || n > maxSeconds {
		return page(400, "Invalid sleep time (0–"+strconv.Itoa(maxSeconds)+" seconds allowed)")
	}

	wait := s.Wait
	if wait == nil {
		wait = sleepContext
	}
	if err := wait(ctx, time.Duration(n)*time.Second); err != nil {
		return page(503, msgShuttingDown)
	}

	return page(200, "Slept for "+strconv.Itoa(n)+" second(s)")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
