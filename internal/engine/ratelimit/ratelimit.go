// Package ratelimit implements a fixed-window in-process rate limiter
// keyed by (user, action). Counters live in memory and reset on restart;
// each process enforces its own limits.
package ratelimit

import (
	"sync"
	"time"
)

// Limit is the policy for one action key.
type Limit struct {
	Max    int
	Window time.Duration
}

// Result reports one Check outcome. ResetIn is how long until the current
// window expires and is the source for Retry-After headers.
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

type window struct {
	start  time.Time
	count  int
	length time.Duration
}

// Limiter counts requests per (user, action) in fixed windows. The first
// request in a window starts it; request Max+1 within the window is
// rejected. Callers construct one Limiter and share it.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	lastPrune time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		windows:   make(map[string]*window),
		lastPrune: time.Now(),
	}
}

// Check counts one attempt for userID performing action under limit and
// reports whether it is allowed. Limits with Max <= 0 allow everything.
func (l *Limiter) Check(userID, action string, limit Limit) Result {
	if limit.Max <= 0 || limit.Window <= 0 {
		return Result{Allowed: true, Remaining: -1}
	}

	key := userID + ":" + action
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybePrune(now)

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= limit.Window {
		w = &window{start: now, length: limit.Window}
		l.windows[key] = w
	}

	resetIn := w.start.Add(limit.Window).Sub(now)
	if w.count >= limit.Max {
		return Result{Allowed: false, Remaining: 0, ResetIn: resetIn}
	}

	w.count++
	return Result{Allowed: true, Remaining: limit.Max - w.count, ResetIn: resetIn}
}

// maybePrune drops long-expired windows so the map does not accumulate
// one entry per user forever. Runs at most once per pruneInterval, under
// the lock already held by Check.
const pruneInterval = 5 * time.Minute

func (l *Limiter) maybePrune(now time.Time) {
	if now.Sub(l.lastPrune) < pruneInterval {
		return
	}
	l.lastPrune = now
	for key, w := range l.windows {
		if now.Sub(w.start) >= 2*w.length {
			delete(l.windows, key)
		}
	}
}
