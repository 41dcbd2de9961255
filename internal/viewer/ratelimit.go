// ABOUTME: Per-client token bucket guarding the public short-link route
// ABOUTME: Keeps a single client from inflating click counts

package viewer

import (
	"sync"
	"time"
)

// sweepEvery is how often Allow drops buckets that have refilled.
const sweepEvery = time.Minute

type bucket struct {
	tokens float64
	last   time.Time
}

// RateLimiter is an in-memory token bucket keyed by client address.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   float64
	now     func() time.Time
	swept   time.Time
}

// NewRateLimiter allows burst requests at once, refilling rate per second.
func NewRateLimiter(rate, burst float64) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

// Allow spends one token for key if one is available.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) >= sweepEvery {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{tokens: l.burst - 1, last: now}
		return l.burst >= 1
	}
	b.tokens += now.Sub(b.last).Seconds() * l.rate
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// sweep forgets buckets that would be full by now. A full bucket behaves
// exactly like a missing one, so nothing a client sees changes.
func (l *RateLimiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if b.tokens+now.Sub(b.last).Seconds()*l.rate >= l.burst {
			delete(l.buckets, key)
		}
	}
	l.swept = now
}

// Len reports how many clients are currently tracked.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
