package wsconn

import (
	"testing"
	"time"
)

func TestConnRateLimiterAllowsBurstThenRejects(t *testing.T) {
	rl := NewConnRateLimiter(ConnRateLimitConfig{ConnectionsPerSecond: 1, Burst: 2, CleanupInterval: time.Hour, EntryTTL: time.Hour})
	defer rl.Close()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first connection within burst should be allowed")
	}
	if !rl.Allow("1.2.3.4") {
		t.Fatal("second connection within burst should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third immediate connection should exceed the burst")
	}
}

func TestConnRateLimiterTracksAddressesIndependently(t *testing.T) {
	rl := NewConnRateLimiter(ConnRateLimitConfig{ConnectionsPerSecond: 1, Burst: 1, CleanupInterval: time.Hour, EntryTTL: time.Hour})
	defer rl.Close()

	if !rl.Allow("1.1.1.1") {
		t.Fatal("first address should be allowed")
	}
	if !rl.Allow("2.2.2.2") {
		t.Fatal("a different address must not share the first address's bucket")
	}
}
