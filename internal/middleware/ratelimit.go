package middleware

import (
	"sync/atomic"
	"time"
)

// RateLimiter is a lock-free token bucket. One bucket guards one realtime
// connection's inbound frames.
type RateLimiter struct {
	tokens   int32
	burst    int32
	interval time.Duration
	lastTick int64 // unix nanos of the last refill
}

// NewRateLimiter allows bursts of up to burst frames, refilling one token
// per interval.
func NewRateLimiter(burst int32, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		tokens:   burst,
		burst:    burst,
		interval: interval,
		lastTick: time.Now().UnixNano(),
	}
}

// Allow reports whether another frame may be processed now, consuming a
// token when it can.
func (l *RateLimiter) Allow() bool {
	now := time.Now().UnixNano()
	last := atomic.LoadInt64(&l.lastTick)

	if elapsed := now - last; elapsed >= int64(l.interval) {
		generated := int32(elapsed / int64(l.interval))
		// Only the goroutine that wins the tick advances the balance.
		if atomic.CompareAndSwapInt64(&l.lastTick, last, now) {
			for {
				current := atomic.LoadInt32(&l.tokens)
				refilled := current + generated
				if refilled > l.burst {
					refilled = l.burst
				}
				if atomic.CompareAndSwapInt32(&l.tokens, current, refilled) {
					break
				}
			}
		}
	}

	for {
		current := atomic.LoadInt32(&l.tokens)
		if current <= 0 {
			return false
		}
		if atomic.CompareAndSwapInt32(&l.tokens, current, current-1) {
			return true
		}
	}
}
