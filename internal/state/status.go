// Package state owns the index lifecycle: the freshness controller that
// keeps the index synchronized with the upstream catalog, and the health
// status it exposes.
package state

import (
	"encoding/json"
	"sync"
)

// ServiceStatus grades one dependency's health.
type ServiceStatus int

const (
	StatusOk ServiceStatus = iota
	StatusWarning
	StatusFailure
)

// MarshalJSON serializes the status as its numeric grade.
func (s ServiceStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

func (s ServiceStatus) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusWarning:
		return "warning"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable view of the controller's health flags.
type Snapshot struct {
	OK       bool          `json:"ok"`
	Index    ServiceStatus `json:"index"`
	Upstream ServiceStatus `json:"upstream"`
}

// Status holds the two error flags the controller maintains. The controller
// is the only writer; health checks read concurrently.
type Status struct {
	mu            sync.RWMutex
	indexError    bool
	upstreamError bool
}

// NewStatus returns a Status with both flags clear.
func NewStatus() *Status {
	return &Status{}
}

// SetIndexError sets or clears the index error flag.
func (s *Status) SetIndexError(v bool) {
	s.mu.Lock()
	s.indexError = v
	s.mu.Unlock()
}

// SetUpstreamError sets or clears the upstream error flag.
func (s *Status) SetUpstreamError(v bool) {
	s.mu.Lock()
	s.upstreamError = v
	s.mu.Unlock()
}

// IsIndexError reports the index error flag.
func (s *Status) IsIndexError() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexError
}

// IsUpstreamError reports the upstream error flag.
func (s *Status) IsUpstreamError() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upstreamError
}

// Snapshot returns a consistent view of both flags.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{OK: true, Index: StatusOk, Upstream: StatusOk}
	if s.indexError {
		snap.OK = false
		snap.Index = StatusFailure
	}
	if s.upstreamError {
		snap.OK = false
		snap.Upstream = StatusFailure
	}
	return snap
}
