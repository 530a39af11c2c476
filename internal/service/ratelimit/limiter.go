package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	last       time.Time
}

func (b *bucket) refill(now time.Time) {
	elapsed := now.Sub(b.last).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.last = now
}

// Limiter is a keyed token bucket. Batch trigger endpoints use it so a
// misbehaving client cannot stack expensive recomputes.
type Limiter struct {
	mu  sync.Mutex
	m   map[string]*bucket
	now func() time.Time
}

func New() *Limiter {
	return &Limiter{m: make(map[string]*bucket), now: time.Now}
}

// SetClock overrides the clock, for tests.
func (l *Limiter) SetClock(now func() time.Time) { l.now = now }

// Allow consumes one token for key if available. The bucket is created on
// first use with the given capacity and refill rate.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.m[key]
	if !ok {
		b = &bucket{tokens: capacity, capacity: capacity, refillRate: refillPerSec, last: now}
		l.m[key] = b
	}
	b.refill(now)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
