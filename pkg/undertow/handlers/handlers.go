// Package handlers implements the built-in routes: integer arithmetic under
// /calc/, file serving under /static/ and a bounded delay under /sleep/.
//
// Every handler answers with a fully buffered response. Validation failures
// are reported with a 4xx status and a short HTML body.
package handlers

import "github.com/yourusername/undertow/pkg/undertow/http11"

// Route prefixes the handlers expect to be mounted on.
const (
	CalcPrefix   = "/calc/"
	StaticPrefix = "/static/"
	SleepPrefix  = "/sleep/"
)

// page wraps msg in the minimal HTML document every handler answers with.
func page(status int, msg string) http11.Response {
	return http11.HTMLResponse(status, "<html><body>"+msg+"</body></html>")
}
