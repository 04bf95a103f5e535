package ratelimit

import (
	"sync"
	"time"
)

// FixedWindow is a process-wide fixed-window counter keyed by logical
// operation name. One window per key; the window resets by replacement when
// it elapses, not by decay. Allow never blocks or queues.
//
// This is a best-effort single-process guard. It does not coordinate across
// instances.
type FixedWindow struct {
	mu      sync.Mutex
	ceiling int
	window  time.Duration
	entries map[string]*windowEntry

	// now is replaceable in tests.
	now func() time.Time
}

type windowEntry struct {
	count   int
	resetAt time.Time
}

// NewFixedWindow constructs a limiter allowing up to ceiling calls per key
// within each window.
func NewFixedWindow(ceiling int, window time.Duration) *FixedWindow {
	if ceiling <= 0 {
		panic("ceiling must be positive")
	}
	if window <= 0 {
		panic("window must be positive")
	}
	return &FixedWindow{
		ceiling: ceiling,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow reports whether another call under key fits in the current window,
// counting it if so. A fresh or elapsed window is replaced with count=1.
func (l *FixedWindow) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		l.entries[key] = &windowEntry{count: 1, resetAt: now.Add(l.window)}
		return true
	}

	if entry.count < l.ceiling {
		entry.count++
		return true
	}
	return false
}
