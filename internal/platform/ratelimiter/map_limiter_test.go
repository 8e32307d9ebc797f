package ratelimiter

import (
	"testing"
	"time"
)

func TestNewRejectsNonPositiveArgs(t *testing.T) {
	if New(0, 1, 0) != nil {
		t.Fatal("expected nil limiter for rps=0")
	}
	if New(1, 0, 0) != nil {
		t.Fatal("expected nil limiter for burst=0")
	}
	var l *RequesterLimiter
	if !l.Allow(42, time.Now()) {
		t.Fatal("nil limiter must allow")
	}
}

func TestAllowEnforcesBurstPerRequester(t *testing.T) {
	l := New(1, 2, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	if !l.Allow(1, now) || !l.Allow(1, now) {
		t.Fatal("first two events within burst must pass")
	}
	if l.Allow(1, now) {
		t.Fatal("third event must be limited")
	}
	if !l.Allow(2, now) {
		t.Fatal("other requester must have its own bucket")
	}
	if !l.Allow(1, now.Add(1500*time.Millisecond)) {
		t.Fatal("bucket must refill over time")
	}
}

func TestIdleBucketsAreSwept(t *testing.T) {
	l := New(100, 100, time.Second)
	start := time.Unix(1_700_000_000, 0)
	l.Allow(7, start)
	later := start.Add(time.Minute)
	for i := 0; i < sweepEvery; i++ {
		l.Allow(8, later)
	}
	if got := l.Tracked(); got != 1 {
		t.Fatalf("expected only the active bucket to remain, got %d", got)
	}
}

func TestKeyedLimiterWithStringKeys(t *testing.T) {
	l := NewKeyed[string](1, 1, time.Minute)
	now := time.Unix(1_700_000_000, 0)
	if !l.Allow("token:a", now) {
		t.Fatal("first call must pass")
	}
	if l.Allow("token:a", now) {
		t.Fatal("second call must be limited")
	}
	if !l.Allow("ip:127.0.0.1", now) {
		t.Fatal("other key must have its own bucket")
	}
	if l.Tracked() != 2 {
		t.Fatalf("expected two buckets, got %d", l.Tracked())
	}
}
