package observer

import (
	"sync"
	"time"
)

// DedupeWindow is how long repeated clicks on the same URL are suppressed.
const DedupeWindow = 4000 * time.Millisecond

// RecentClicks remembers when each URL was last clicked. Entries older than
// the window are pruned whenever the cache is touched, so it only ever holds
// very recently clicked URLs.
type RecentClicks struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	last   map[string]time.Time
}

// NewRecentClicks creates a cache with the given window and clock.
func NewRecentClicks(window time.Duration, now func() time.Time) *RecentClicks {
	if now == nil {
		now = time.Now
	}
	return &RecentClicks{
		window: window,
		now:    now,
		last:   make(map[string]time.Time),
	}
}

// Seen records a click on url and reports whether the previous click on it
// was less than a window ago. Every click moves the window forward, so a
// steady stream of rapid clicks stays suppressed.
func (r *RecentClicks) Seen(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	last, ok := r.last[url]
	r.last[url] = now

	for u, t := range r.last {
		if now.Sub(t) > r.window {
			delete(r.last, u)
		}
	}

	return ok && now.Sub(last) < r.window
}

// Len returns the number of URLs currently remembered.
func (r *RecentClicks) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.last)
}
