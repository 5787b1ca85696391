package identity

import (
	"sync"
	"time"
)

type attempts struct {
	count    int
	windowAt time.Time
}

// Limiter counts failed sign-ins per key inside a fixed window.  Once a key
// reaches limit failures it stays blocked until the window ends.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*attempts
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewLimiter returns a limiter allowing limit failures per window.
func NewLimiter(limit int, window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		entries: make(map[string]*attempts),
		limit:   limit,
		window:  window,
		now:     now,
	}
}

// Blocked reports whether key has used up its failures.
func (l *Limiter) Blocked(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		return false
	}
	if l.now().After(e.windowAt) {
		delete(l.entries, key)
		return false
	}
	return e.count >= l.limit
}

// Fail records one failure for key.  The window opens at the first failure.
func (l *Limiter) Fail(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.After(e.windowAt) {
		l.entries[key] = &attempts{count: 1, windowAt: now.Add(l.window)}
		return
	}
	e.count++
}

// Reset forgets key, e.g. after a successful sign-in.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Cleanup removes expired entries.
func (l *Limiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.After(e.windowAt) {
			delete(l.entries, key)
		}
	}
}
