// Package dedup drops chat events the transport delivers more than once.
package dedup

import (
	"context"
	"sync"
	"time"
)

// DefaultTTL is how long a processed event key is remembered.
const DefaultTTL = 5 * time.Minute

// Suppressor remembers recently processed event keys.
type Suppressor struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// New returns a suppressor with the given TTL (DefaultTTL when <= 0) and clock (time.Now when nil).
func New(ttl time.Duration, now func() time.Time) *Suppressor {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Suppressor{seen: make(map[string]time.Time), ttl: ttl, now: now}
}

// Key builds the composite event key.
func Key(userID, ts, channelID string) string {
	return userID + "-" + ts + "-" + channelID
}

// ShouldProcess registers key and returns true on first sight; repeats within the TTL return false.
func (s *Suppressor) ShouldProcess(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = now
	return true
}

// Len returns the number of remembered keys.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Run sweeps expired keys every interval until ctx is done.
func (s *Suppressor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.ttl
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			s.sweep(s.now())
			s.mu.Unlock()
		}
	}
}

// sweep must be called with s.mu held. A key expires once ttl has fully elapsed.
func (s *Suppressor) sweep(now time.Time) {
	for k, at := range s.seen {
		if now.Sub(at) >= s.ttl {
			delete(s.seen, k)
		}
	}
}
