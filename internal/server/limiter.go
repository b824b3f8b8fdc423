package server

import "sync/atomic"

// SessionLimiter enforces the fixed cap on concurrent control sessions.
type SessionLimiter struct {
	maxSessions int64
	current     atomic.Int64
}

// NewSessionLimiter creates a limiter with the specified maximum.
func NewSessionLimiter(max int) *SessionLimiter {
	return &SessionLimiter{maxSessions: int64(max)}
}

// TryAcquire attempts to acquire a session slot.
// Returns true if successful, false if at capacity.
func (l *SessionLimiter) TryAcquire() bool {
	for {
		current := l.current.Load()
		if current >= l.maxSessions {
			return false
		}
		if l.current.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// Release releases a session slot.
func (l *SessionLimiter) Release() {
	l.current.Add(-1)
}

// Current returns the current active session count.
func (l *SessionLimiter) Current() int64 {
	return l.current.Load()
}
