// Package ratelimit implements an in-memory sliding-window rate limiter.
// It is suitable for a single server instance only.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Stats describes the state of a key's window after an admission decision.
type Stats struct {
	CurrentCount int   `json:"current_count"`
	Limit        int   `json:"limit"`
	Window       int   `json:"window"`
	Remaining    int   `json:"remaining"`
	ResetTime    int64 `json:"reset_time,omitempty"`
	RetryAfter   int   `json:"retry_after,omitempty"`
}

type Limiter struct {
	mutex    sync.Mutex
	requests map[string][]time.Time
	// windows holds the longest window each key was admitted under, so a
	// sweep never trims timestamps that still count.
	windows map[string]time.Duration
	clock   TimeProvider

	stopCleanup chan struct{}
}

func New() *Limiter {
	return NewWithClock(&realTimeProvider{})
}

func NewWithClock(clock TimeProvider) *Limiter {
	return &Limiter{
		requests: make(map[string][]time.Time),
		windows:  make(map[string]time.Duration),
		clock:    clock,
	}
}

// Admit records a request for key if fewer than limit requests were admitted
// within the last window. Rejected attempts are not recorded.
func (l *Limiter) Admit(key string, limit int, window time.Duration) (Stats, bool) {
	now := l.clock.Now()
	windowSecs := int(window / time.Second)

	l.mutex.Lock()
	defer l.mutex.Unlock()

	if window > l.windows[key] {
		l.windows[key] = window
	}
	times := purge(l.requests[key], now.Add(-window))
	count := len(times)

	if count >= limit {
		oldest := now
		if count > 0 {
			oldest = times[0]
		}
		reset := oldest.Add(window)
		l.requests[key] = times
		return Stats{
			CurrentCount: count,
			Limit:        limit,
			Window:       windowSecs,
			Remaining:    0,
			ResetTime:    reset.Unix(),
			RetryAfter:   retryAfterSeconds(reset.Sub(now)),
		}, false
	}

	l.requests[key] = append(times, now)
	return Stats{
		CurrentCount: count + 1,
		Limit:        limit,
		Window:       windowSecs,
		Remaining:    limit - count - 1,
	}, true
}

// Cleanup drops keys that have no requests newer than maxAge. A key's
// horizon is never shorter than its own window. It returns the number of
// keys removed.
func (l *Limiter) Cleanup(maxAge time.Duration) int {
	now := l.clock.Now()

	l.mutex.Lock()
	defer l.mutex.Unlock()

	removed := 0
	for key, times := range l.requests {
		horizon := maxAge
		if w := l.windows[key]; w > horizon {
			horizon = w
		}
		times = purge(times, now.Add(-horizon))
		if len(times) == 0 {
			delete(l.requests, key)
			delete(l.windows, key)
			removed++
			continue
		}
		l.requests[key] = times
	}
	return removed
}

// StartCleanup runs Cleanup every interval until Stop is called.
func (l *Limiter) StartCleanup(interval, maxAge time.Duration, onSweep func(removed int)) {
	stop := make(chan struct{})
	l.mutex.Lock()
	if l.stopCleanup != nil {
		close(l.stopCleanup)
	}
	l.stopCleanup = stop
	l.mutex.Unlock()

	ticker := time.NewTicker(interval)

	go func(stop <-chan struct{}) {
		for {
			select {
			case <-ticker.C:
				removed := l.Cleanup(maxAge)
				if onSweep != nil {
					onSweep(removed)
				}
			case <-stop:
				ticker.Stop()
				return
			}
		}
	}(stop)
}

// Stop ends the background sweep started by StartCleanup. It is safe to call
// more than once.
func (l *Limiter) Stop() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if l.stopCleanup != nil {
		close(l.stopCleanup)
		l.stopCleanup = nil
	}
}

// Keys returns the number of tracked keys.
func (l *Limiter) Keys() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.requests)
}

// purge drops timestamps older than cutoff. times is ordered oldest first.
func purge(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0:0], times[i:]...)
}

func retryAfterSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
