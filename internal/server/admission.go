package server

import (
	"sync"
	"time"
)

// tokenBucket is a single global connection-rate limiter (§4.7's "token
// bucket refilled at the configured rate"), grounded on the sharded
// per-client limiter in the retrieval pack's rate-limiter project but
// simplified to one bucket: admission control rate-limits new sockets as a
// whole, not per remote address.
type tokenBucket struct {
	mu         sync.Mutex
	ratePerSec float64
	burst      float64
	tokens     float64
	lastRefill time.Time
}

func newTokenBucket(ratePerSec int) *tokenBucket {
	rate := float64(ratePerSec)
	return &tokenBucket{
		ratePerSec: rate,
		burst:      rate,
		tokens:     rate,
		lastRefill: time.Now(),
	}
}

// allow reports whether a new connection may be admitted right now,
// consuming one token if so. A nil-rate bucket (ratePerSec <= 0) always
// allows, i.e. the rate limit is disabled.
func (b *tokenBucket) allow() bool {
	if b == nil || b.ratePerSec <= 0 {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.ratePerSec
	if b.tokens > b.burst {
		b.tokens = b.burst
	}
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
