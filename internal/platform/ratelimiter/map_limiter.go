package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultIdleTTL = 10 * time.Minute
	sweepEvery     = 256
)

// KeyedLimiter applies a token bucket per key and evicts buckets that have
// been idle longer than idleTTL.
type KeyedLimiter[K comparable] struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[K]*bucket
	calls uint64
}

// RequesterLimiter keys buckets by chat requester id.
type RequesterLimiter = KeyedLimiter[int64]

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New returns nil when rps or burst is not positive; a nil limiter allows everything.
func New(rps float64, burst int, idleTTL time.Duration) *RequesterLimiter {
	return NewKeyed[int64](rps, burst, idleTTL)
}

func NewKeyed[K comparable](rps float64, burst int, idleTTL time.Duration) *KeyedLimiter[K] {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = defaultIdleTTL
	}
	return &KeyedLimiter[K]{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[K]*bucket),
	}
}

// Allow consumes one token for key at now.
func (l *KeyedLimiter[K]) Allow(key K, now time.Time) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.calls++
	if l.calls%sweepEvery == 0 {
		l.sweepLocked(now)
	}
	return allowed
}

// Tracked reports how many buckets are currently held.
func (l *KeyedLimiter[K]) Tracked() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

func (l *KeyedLimiter[K]) sweepLocked(now time.Time) {
	cutoff := now.Add(-l.idleTTL)
	for key, b := range l.byKey {
		if b.lastSeen.Before(cutoff) {
			delete(l.byKey, key)
		}
	}
}
