// Package metrics exports server activity as Prometheus metrics.
//
// A *Metrics satisfies http11.Observer, server.Observer and
// middleware.HandlerObserver. All methods are safe on a nil receiver, which
// records nothing.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourusername/undertow/pkg/undertow/http11"
)

const namespace = "undertow"

// Metrics holds the collectors for one server.
type Metrics struct {
	connsAccepted prometheus.Counter
	connsActive   prometheus.Gauge
	connDuration  prometheus.Histogram
	connRequests  prometheus.Histogram

	frames        prometheus.Counter
	parseErrors   *prometheus.CounterVec
	overflows     prometheus.Counter
	responses     *prometheus.CounterVec
	responseBytes prometheus.Counter

	handlerDuration *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg registers nothing,
// which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "accepted_total",
			Help:      "Total number of accepted connections",
		}),
		connsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "active",
			Help:      "Number of connections currently being served",
		}),
		connDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "duration_seconds",
			Help:      "Connection lifetime from accept to close",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		connRequests: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connections",
			Name:      "requests",
			Help:      "Requests dispatched per connection",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "frames_total",
			Help:      "Total number of request frames extracted",
		}),
		parseErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "parse_errors_total",
			Help:      "Frames that failed request-line validation",
		}, []string{"reason"}),
		overflows: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "overflows_total",
			Help:      "Connections closed because the frame buffer filled without a terminator",
		}),
		responses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responses",
			Name:      "total",
			Help:      "Responses written by status code",
		}, []string{"code"}),
		responseBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "responses",
			Name:      "bytes_total",
			Help:      "Response bytes written, including the status line and headers",
		}),
		handlerDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "handler",
			Name:      "duration_seconds",
			Help:      "Handler latency by route and status code",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "code"}),
	}
}

// ObserveConnOpened records an accepted connection.
func (m *Metrics) ObserveConnOpened() {
	if m == nil {
		return
	}
	m.connsAccepted.Inc()
	m.connsActive.Inc()
}

// ObserveConnClosed records the end of a connection.
func (m *Metrics) ObserveConnClosed(requests int64, d time.Duration) {
	if m == nil {
		return
	}
	m.connsActive.Dec()
	m.connDuration.Observe(d.Seconds())
	m.connRequests.Observe(float64(requests))
}

// ObserveFrame implements http11.Observer.
func (m *Metrics) ObserveFrame() {
	if m == nil {
		return
	}
	m.frames.Inc()
}

// ObserveParseError implements http11.Observer.
func (m *Metrics) ObserveParseError(err error) {
	if m == nil {
		return
	}
	m.parseErrors.WithLabelValues(ParseErrorReason(err)).Inc()
}

// ObserveResponse implements http11.Observer.
func (m *Metrics) ObserveResponse(status int, size int64) {
	if m == nil {
		return
	}
	m.responses.WithLabelValues(strconv.Itoa(status)).Inc()
	m.responseBytes.Add(float64(size))
}

// ObserveOverflow implements http11.Observer.
func (m *Metrics) ObserveOverflow() {
	if m == nil {
		return
	}
	m.overflows.Inc()
}

// ObserveHandler implements middleware.HandlerObserver.
func (m *Metrics) ObserveHandler(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.handlerDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ParseErrorReason maps a parse failure to a low-cardinality label.
func ParseErrorReason(err error) string {
	switch {
	case errors.Is(err, http11.ErrUnsupportedMethod):
		return "method"
	case errors.Is(err, http11.ErrUnsupportedVersion):
		return "version"
	case errors.Is(err, http11.ErrTokenTooLong):
		return "too_long"
	case errors.Is(err, http11.ErrMalformedRequestLine):
		return "malformed"
	default:
		return "other"
	}
}
