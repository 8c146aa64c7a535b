package catalog

import (
	"sync"
	"time"

	"github.com/garyellow/program-catalog-go/internal/metrics"
)

// Registry tracks catalog sessions by id for HTTP hosts and expires
// sessions that have been idle for longer than the configured TTL.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	orch     *Orchestrator
	idleTTL  time.Duration
	metrics  *metrics.Metrics
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRegistry creates a registry and starts its cleanup loop.
// Call Stop to end the loop.
func NewRegistry(orch *Orchestrator, idleTTL, cleanupPeriod time.Duration, m *metrics.Metrics) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		orch:     orch,
		idleTTL:  idleTTL,
		metrics:  m,
		stopCh:   make(chan struct{}),
	}
	go r.cleanupLoop(cleanupPeriod)
	return r
}

// Acquire returns the session for id, or opens a new one when id is empty or
// unknown. The boolean reports whether a new session was created.
func (r *Registry) Acquire(id string) (*Session, bool) {
	if id != "" {
		r.mu.RLock()
		s, ok := r.sessions[id]
		r.mu.RUnlock()
		if ok {
			s.touch()
			return s, false
		}
	}

	s := r.orch.NewSession(nil)
	r.mu.Lock()
	r.sessions[s.ID()] = s
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	return s, true
}

// Get returns an existing session.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		s.touch()
	}
	return s, ok
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep removes sessions idle since before now-idleTTL and returns how many
// were removed.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	removed := 0
	for id, s := range r.sessions {
		if s.LastUsed().Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(count)
	return removed
}

func (r *Registry) cleanupLoop(period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.orch.logger.Debug("Expired idle catalog sessions", "count", n)
			}
		}
	}
}

// Stop ends the cleanup loop. Safe to call multiple times.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}
