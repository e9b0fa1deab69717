// Package ratelimit provides sliding-window request admission control keyed
// by client identity, used on authentication endpoints.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter admits at most max requests per key within a trailing window.
// Timestamps are pruned lazily on each admission check; idle keys keep stale
// entries until their next check or a Sweep. Safe for concurrent use; a
// single lock is acceptable at the low key cardinality of auth endpoints.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	max     int
	window  time.Duration
	nowF    func() time.Time
}

// New returns a Limiter admitting max requests per key within window.
func New(max int, window time.Duration) *Limiter {
	return &Limiter{
		windows: make(map[string][]time.Time),
		max:     max,
		window:  window,
		nowF:    func() time.Time { return time.Now().UTC() },
	}
}

// Admit records and admits a request for key if fewer than max requests were
// recorded within the trailing window, and denies it without recording
// otherwise. A denied request does not consume quota. Admit never errors.
func (l *Limiter) Admit(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowF()
	windowStart := now.Add(-l.window)

	kept := l.windows[key][:0]
	for _, t := range l.windows[key] {
		if t.After(windowStart) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.windows[key] = kept
		return false
	}
	l.windows[key] = append(kept, now)
	return true
}

// Sweep removes keys whose recorded requests have all aged out of the window.
// Callers run it periodically to bound memory for keys that never return.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.nowF().Add(-l.window)
	for key, times := range l.windows {
		live := false
		for _, t := range times {
			if t.After(windowStart) {
				live = true
				break
			}
		}
		if !live {
			delete(l.windows, key)
		}
	}
}

// AuthKey builds the limiter key for authentication attempts from a client
// address.
func AuthKey(clientIP string) string {
	return "auth:" + clientIP
}
