package middleware

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

func request(path string) *http11.Request {
	return &http11.Request{Method: "GET", Path: path, Version: "HTTP/1.1", RemoteAddr: "127.0.0.1:5555"}
}

func ok(ctx context.Context, req *http11.Request) http11.Response {
	return http11.HTMLResponse(200, "ok")
}

func TestRecoveryReturns500(t *testing.T) {
	var logs bytes.Buffer
	h := Recovery(zerolog.New(&logs))(http11.HandlerFunc(func(ctx context.Context, req *http11.Request) http11.Response {
		panic("something went wrong")
	}))

	resp := h.ServeRequest(context.Background(), request("/calc/boom"))
	if resp.Status != 500 {
		t.Errorf("Status = %d, want 500", resp.Status)
	}
	if string(resp.Body) != internalErrorBody {
		t.Errorf("Body = %q", resp.Body)
	}
	if !strings.Contains(logs.String(), "something went wrong") || !strings.Contains(logs.String(), `"stack"`) {
		t.Errorf("panic not logged with stack: %s", logs.String())
	}
}

func TestRecoveryPassesThrough(t *testing.T) {
	h := Recovery(zerolog.Nop())(http11.HandlerFunc(ok))
	if resp := h.ServeRequest(context.Background(), request("/")); resp.Status != 200 {
		t.Errorf("Status = %d, want 200", resp.Status)
	}
}

func TestRecoveryStackTruncated(t *testing.T) {
	var logs bytes.Buffer
	h := RecoveryWithConfig(RecoveryConfig{Logger: zerolog.New(&logs), PrintStack: true, StackSize: 16})(
		http11.HandlerFunc(func(ctx context.Context, req *http11.Request) http11.Response { panic(42) }))

	h.ServeRequest(context.Background(), request("/"))
	if !strings.Contains(logs.String(), `"panic":"42"`) {
		t.Errorf("logs = %s", logs.String())
	}
}

func TestAccessLog(t *testing.T) {
	var logs bytes.Buffer
	h := AccessLog(zerolog.New(&logs).Level(zerolog.DebugLevel))(http11.HandlerFunc(ok))

	h.ServeRequest(context.Background(), request("/calc/add/1/2"))

	out := logs.String()
	for _, want := range []string{`"method":"GET"`, `"path":"/calc/add/1/2"`, `"status":200`, `"remote":"127.0.0.1:5555"`} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %s: %s", want, out)
		}
	}
}

type recordingObserver struct {
	route  string
	status int
	calls  int
}

func (o *recordingObserver) ObserveHandler(route string, status int, d time.Duration) {
	o.route, o.status = route, status
	o.calls++
}

func TestInstrument(t *testing.T) {
	obs := &recordingObserver{}
	h := Instrument(obs, "calc")(http11.HandlerFunc(ok))
	h.ServeRequest(context.Background(), request("/calc/add/1/2"))

	if obs.calls != 1 || obs.route != "calc" || obs.status != 200 {
		t.Errorf("observer = %+v", obs)
	}
}

func TestInstrumentNilObserver(t *testing.T) {
	inner := http11.HandlerFunc(ok)
	h := Instrument(nil, "calc")(inner)
	if resp := h.ServeRequest(context.Background(), request("/")); resp.Status != 200 {
		t.Errorf("Status = %d", resp.Status)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http11.Handler) http11.Handler {
			return http11.HandlerFunc(func(ctx context.Context, req *http11.Request) http11.Response {
				order = append(order, name)
				return next.ServeRequest(ctx, req)
			})
		}
	}

	Chain(http11.HandlerFunc(ok), mark("outer"), mark("inner")).ServeRequest(context.Background(), request("/"))
	if strings.Join(order, ",") != "outer,inner" {
		t.Errorf("order = %v", order)
	}
}
