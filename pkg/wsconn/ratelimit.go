package wsconn

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ConnRateLimitConfig configures per-remote-address connection admission.
type ConnRateLimitConfig struct {
	ConnectionsPerSecond float64
	Burst                int
	CleanupInterval      time.Duration
	EntryTTL             time.Duration
}

// DefaultConnRateLimitConfig allows a modest burst of reconnects per client
// without opening the door to a connection-flood from one address.
func DefaultConnRateLimitConfig() ConnRateLimitConfig {
	return ConnRateLimitConfig{
		ConnectionsPerSecond: 2,
		Burst:                5,
		CleanupInterval:      5 * time.Minute,
		EntryTTL:             10 * time.Minute,
	}
}

type rateLimitEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// ConnRateLimiter admits or rejects new connections per remote address. It
// is safe for concurrent use across the Listener's accept path.
type ConnRateLimiter struct {
	mu       sync.Mutex
	entries  map[string]*rateLimitEntry
	cfg      ConnRateLimitConfig
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewConnRateLimiter starts a ConnRateLimiter with a background cleanup
// loop for stale entries.
func NewConnRateLimiter(cfg ConnRateLimitConfig) *ConnRateLimiter {
	rl := &ConnRateLimiter{
		entries: make(map[string]*rateLimitEntry),
		cfg:     cfg,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Allow reports whether a new connection from addr should be admitted.
func (rl *ConnRateLimiter) Allow(addr string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.entries[addr]
	if !ok {
		e = &rateLimitEntry{limiter: rate.NewLimiter(rate.Limit(rl.cfg.ConnectionsPerSecond), rl.cfg.Burst)}
		rl.entries[addr] = e
	}
	e.lastAccess = time.Now()
	return e.limiter.Allow()
}

// Close stops the cleanup loop.
func (rl *ConnRateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
	<-rl.doneCh
}

func (rl *ConnRateLimiter) cleanupLoop() {
	defer close(rl.doneCh)

	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.cleanup()
		}
	}
}

func (rl *ConnRateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.cfg.EntryTTL)
	for addr, e := range rl.entries {
		if e.lastAccess.Before(cutoff) {
			delete(rl.entries, addr)
		}
	}
}
