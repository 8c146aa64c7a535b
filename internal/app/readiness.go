package app

import (
	"sync/atomic"
	"time"
)

// ReadinessState tracks whether the startup snapshot refresh and
// connectivity probe have finished. After the grace period the service
// reports ready regardless, serving whatever snapshot is on disk.
type ReadinessState struct {
	ready     atomic.Bool
	startTime time.Time     // Immutable after construction
	timeout   time.Duration // Immutable after construction
}

// ReadinessStatus contains the current readiness state for API responses.
type ReadinessStatus struct {
	Ready          bool   `json:"ready"`
	Reason         string `json:"reason,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// NewReadinessState creates a not-ready state with the given grace period.
func NewReadinessState(timeout time.Duration) *ReadinessState {
	return &ReadinessState{
		startTime: time.Now(),
		timeout:   timeout,
	}
}

// IsReady reports whether startup finished or the grace period elapsed.
func (s *ReadinessState) IsReady() bool {
	return s.ready.Load() || time.Since(s.startTime) >= s.timeout
}

// MarkReady marks startup as complete.
func (s *ReadinessState) MarkReady() {
	s.ready.Store(true)
}

// StartupCompleted reports whether MarkReady was called. Unlike IsReady it
// ignores the grace period.
func (s *ReadinessState) StartupCompleted() bool {
	return s.ready.Load()
}

// Status returns the current readiness status for API responses.
func (s *ReadinessState) Status() ReadinessStatus {
	elapsed := time.Since(s.startTime)
	status := ReadinessStatus{
		Ready:          s.IsReady(),
		ElapsedSeconds: int(elapsed.Seconds()),
		TimeoutSeconds: int(s.timeout.Seconds()),
	}

	switch {
	case !status.Ready:
		status.Reason = "catalog startup in progress"
	case !s.ready.Load():
		status.Reason = "grace period elapsed (startup may still be running)"
	}
	return status
}
