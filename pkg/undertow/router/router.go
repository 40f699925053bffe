// Package router maps request paths to handlers by fixed path prefix.
package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

// Router errors
var (
	// ErrInvalidPrefix indicates a route prefix that is empty or does not
	// start with '/'
	ErrInvalidPrefix = errors.New("router: prefix must start with '/'")

	// ErrDuplicatePrefix indicates the same prefix was registered twice
	ErrDuplicatePrefix = errors.New("router: duplicate prefix")

	// ErrNilHandler indicates a route without a handler
	ErrNilHandler = errors.New("router: nil handler")
)

// notFoundBody is the fixed body returned when no route matches
const notFoundBody = "<html><body><h1>404 Not Found</h1></body></html>"

// Route pairs a path prefix with its handler.
type Route struct {
	// Prefix is matched against the start of the request path, byte for byte
	Prefix string

	// Name labels the route in logs and metrics. Defaults to Prefix.
	Name string

	Handler http11.Handler
}

// Table is an immutable, ordered route table.
//
// Lookup selects the longest registered prefix that the path starts with.
// Among equally long prefixes the earlier registration wins, so for
// non-overlapping prefixes this is plain first-match in registration order.
//
// A Table is safe for concurrent use: it is never modified after New.
type Table struct {
	routes   []Route
	notFound http11.Handler
}

// New builds a route table. Routes are copied; the caller's slice may be
// reused afterwards.
func New(routes ...Route) (*Table, error) {
	t := &Table{
		routes:   make([]Route, 0, len(routes)),
		notFound: http11.HandlerFunc(NotFound),
	}

	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if r.Prefix == "" || r.Prefix[0] != '/' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPrefix, r.Prefix)
		}
		if r.Handler == nil {
			return nil, fmt.Errorf("%w: %q", ErrNilHandler, r.Prefix)
		}
		if _, dup := seen[r.Prefix]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePrefix, r.Prefix)
		}
		seen[r.Prefix] = struct{}{}

		if r.Name == "" {
			r.Name = r.Prefix
		}
		t.routes = append(t.routes, r)
	}
	return t, nil
}

// Lookup returns the route for path, if any.
func (t *Table) Lookup(path string) (Route, bool) {
	best := -1
	for i, r := range t.routes {
		if !strings.HasPrefix(path, r.Prefix) {
			continue
		}
		if best == -1 || len(r.Prefix) > len(t.routes[best].Prefix) {
			best = i
		}
	}
	if best == -1 {
		return Route{}, false
	}
	return t.routes[best], true
}

// ServeRequest dispatches req to its route, or answers 404.
func (t *Table) ServeRequest(ctx context.Context, req *http11.Request) http11.Response {
	if r, ok := t.Lookup(req.Path); ok {
		return r.Handler.ServeRequest(ctx, req)
	}
	return t.notFound.ServeRequest(ctx, req)
}

// Routes returns a copy of the registered routes in registration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// NotFound answers every request with the fixed 404 page.
func NotFound(ctx context.Context, req *http11.Request) http11.Response {
	return http11.HTMLResponse(404, notFoundBody)
}
