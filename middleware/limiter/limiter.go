// Package limiter caps how many messages a session may send per time window.
package limiter

import (
	"fmt"
	"sync"
	"time"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
	"github.com/sweetpotato0/ai-lawdesk/middleware"
)

// RateLimiter is a per-session sliding-window limiter. It is safe for
// concurrent use.
type RateLimiter struct {
	maxRequests int
	window      time.Duration
	now         func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

// NewRateLimiter allows maxRequests messages per session within window.
// maxRequests <= 0 disables limiting.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		hits:        make(map[string][]time.Time),
	}
}

// Name returns the middleware name
func (m *RateLimiter) Name() string {
	return "RateLimiter"
}

// Execute checks rate limit
func (m *RateLimiter) Execute(ctx *middleware.Context, next middleware.Handler) error {
	if !m.allow(ctx.SessionID) {
		return fmt.Errorf("session %s: %w", ctx.SessionID, lderrors.ErrRateLimited)
	}
	return next(ctx)
}

func (m *RateLimiter) allow(session string) bool {
	if m.maxRequests <= 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	recent := m.prune(session, now)
	if len(recent) >= m.maxRequests {
		return false
	}
	m.hits[session] = append(recent, now)
	return true
}

// prune drops hits older than the window. Callers hold mu.
func (m *RateLimiter) prune(session string, now time.Time) []time.Time {
	hits := m.hits[session]
	cutoff := now.Add(-m.window)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	recent := hits[i:]
	if len(recent) == 0 {
		delete(m.hits, session)
		return nil
	}
	m.hits[session] = recent
	return recent
}

// Reset forgets the history of one session.
func (m *RateLimiter) Reset(session string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hits, session)
}

// GetCounter returns how many messages the session sent in the current window.
func (m *RateLimiter) GetCounter(session string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prune(session, m.now()))
}
