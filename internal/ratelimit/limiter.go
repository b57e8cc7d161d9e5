package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Limiter is a fixed-window counter keyed by caller identity. It is built
// once at startup and injected where needed; there is no package-global
// state.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	limit   int
	maxKeys int
	entries map[string]*window
	now     func() time.Time
}

func NewLimiter(windowDur time.Duration, limit, maxKeys int) *Limiter {
	if windowDur <= 0 {
		windowDur = time.Minute
	}
	if limit <= 0 {
		limit = 10
	}
	if maxKeys <= 0 {
		maxKeys = 4096
	}
	return &Limiter{
		window:  windowDur,
		limit:   limit,
		maxKeys: maxKeys,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// OverrideNow replaces the limiter clock (used in tests).
func (l *Limiter) OverrideNow(now func() time.Time) {
	l.mu.Lock()
	l.now = now
	l.mu.Unlock()
}

// Allow records one call for key. It returns false with a wait hint when
// the key has exhausted its window.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) >= l.window {
		if !ok && len(l.entries) >= l.maxKeys {
			l.evictLocked(now)
		}
		l.entries[key] = &window{count: 1, start: now}
		return true, 0
	}
	w.count++
	if w.count > l.limit {
		return false, w.start.Add(l.window).Sub(now)
	}
	return true, 0
}

// Prune drops expired windows. Wired to a cron job so idle keys do not
// accumulate between bursts.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.evictLocked(l.now())
}

// Size returns the number of tracked keys.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Limiter) evictLocked(now time.Time) int {
	removed := 0
	for key, w := range l.entries {
		if now.Sub(w.start) >= l.window {
			delete(l.entries, key)
			removed++
		}
	}
	// still over capacity after dropping expired windows: shed the oldest
	for len(l.entries) >= l.maxKeys {
		var oldestKey string
		var oldest time.Time
		for key, w := range l.entries {
			if oldestKey == "" || w.start.Before(oldest) {
				oldestKey = key
				oldest = w.start
			}
		}
		delete(l.entries, oldestKey)
		removed++
	}
	return removed
}
