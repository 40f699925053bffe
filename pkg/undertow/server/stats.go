package server

import (
	"sync/atomic"
	"time"
)

// Stats represents server statistics
type Stats struct {
	// Total number of connections accepted
	TotalConnections atomic.Uint64

	// Current number of active connections
	ActiveConnections atomic.Int64

	// Total number of requests dispatched to the handler
	TotalRequests atomic.Uint64

	// Connections that ended with an error other than a clean close
	ConnectionErrors atomic.Uint64

	// Failed Accept calls
	AcceptErrors atomic.Uint64

	// Server start time
	StartTime time.Time
}

// Duration returns the time since the server started
func (s *Stats) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// RequestsPerSecond returns the average requests per second
func (s *Stats) RequestsPerSecond() float64 {
	duration := s.Duration().Seconds()
	if duration == 0 {
		return 0
	}
	return float64(s.TotalRequests.Load()) / duration
}

// Snapshot is a point-in-time copy of Stats suitable for encoding.
type Snapshot struct {
	TotalConnections  uint64  `json:"total_connections"`
	ActiveConnections int64   `json:"active_connections"`
	TotalRequests     uint64  `json:"total_requests"`
	ConnectionErrors  uint64  `json:"connection_errors"`
	AcceptErrors      uint64  `json:"accept_errors"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

// Snapshot returns the current values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		TotalConnections:  s.TotalConnections.Load(),
		ActiveConnections: s.ActiveConnections.Load(),
		TotalRequests:     s.TotalRequests.Load(),
		ConnectionErrors:  s.ConnectionErrors.Load(),
		AcceptErrors:      s.AcceptErrors.Load(),
		UptimeSeconds:     s.Duration().Seconds(),
		RequestsPerSecond: s.RequestsPerSecond(),
	}
}
