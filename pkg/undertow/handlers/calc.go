package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

const (
	msgMalformedCalc  = "Malformed /calc path"
	msgDivisionByZero = "Division by zero"
	msgUnsupportedOp  = "Unsupported operation"
)

// calcOp is one supported operation.
type calcOp struct {
	symbol string
	apply  func(a, b int64) int64
}

var calcOps = map[string]calcOp{
	"add": {"+", func(a, b int64) int64 { return a + b }},
	"mul": {"*", func(a, b int64) int64 { return a * b }},
	"div": {"/", func(a, b int64) int64 { return a / b }},
}

// Calc evaluates /calc/{op}/{a}/{b}.
//
// Operands are base-10 32-bit integers. Results are computed in 64 bits, so
// add and mul never overflow. Division truncates toward zero.
type Calc struct{}

// ServeRequest implements http11.Handler.
func (Calc) ServeRequest(ctx context.Context, req *http11.Request) http11.Response {
	rest, ok := req.PathSuffix(CalcPrefix)
	if !ok {
		return page(400, msgMalformedCalc)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 3 {
		return page(400, msgMalformedCalc)
	}
	a, errA := strconv.ParseInt(parts[1], 10, 32)
	b, errB := strconv.ParseInt(parts[2], 10, 32)
	if errA != nil || errB != nil {
		return page(400, msgMalformedCalc)
	}

	op, ok := calcOps[parts[0]]
	if !ok {
		return page(400, msgUnsupportedOp)
	}
	if parts[0] == "div" && b == 0 {
		return page(400, msgDivisionByZero)
	}

	body := make([]byte, 0, 64)
	body = append(body, "<html><body>"...)
	body = strconv.AppendInt(body, a, 10)
	body = append(body, ' ')
	body = append(body, op.symbol...)
	body = append(body, ' ')
	body = strconv.AppendInt(body, b, 10)
	body = append(body, " = "...)
	body = strconv.AppendInt(body, op.apply(a, b), 10)
	body = append(body, "</body></html>"...)

	return http11.Response{Status: 200, ContentType: http11.ContentTypeHTML, Body: body}
}
