package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campo-social/notification/internal/domain"
)

// MemoryLimiter is the process-local variant: a mutex-guarded map of
// creation timestamps per key. Only correct for a single-instance
// deployment; across instances it under-counts and the StoreLimiter must
// be used instead. Entries whose timestamps have all slid out of the
// window are evicted by Run on a fixed interval to bound memory.
type MemoryLimiter struct {
	mu        sync.Mutex
	entries   map[string][]time.Time
	window    time.Duration
	threshold int
	now       func() time.Time
}

// NewMemoryLimiter creates a MemoryLimiter. Non-positive window/threshold
// fall back to the defaults.
func NewMemoryLimiter(window time.Duration, threshold int) *MemoryLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &MemoryLimiter{
		entries:   make(map[string][]time.Time),
		window:    window,
		threshold: threshold,
		now:       time.Now,
	}
}

// Allow checks the sliding window for key. The in-flight request is
// recorded only after the check passes.
func (l *MemoryLimiter) Allow(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := trim(l.entries[key], now.Add(-l.window))

	if len(recent) >= l.threshold {
		l.entries[key] = recent
		return domain.E(domain.CodeResourceExhausted,
			"limit of %d notifications per %s exceeded, try again later", l.threshold, l.window)
	}

	l.entries[key] = append(recent, now)
	return nil
}

// Run evicts empty entries on a fixed interval until ctx is cancelled.
// Owned by the process supervisor, not a fire-and-forget timer.
func (l *MemoryLimiter) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			evicted := l.prune()
			if evicted > 0 {
				log.Debug().Int("evicted", evicted).Msg("rate limit cache pruned")
			}
		case <-ctx.Done():
			return
		}
	}
}

// prune drops keys with no timestamps left in the window; returns how many
// keys were evicted.
func (l *MemoryLimiter) prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	evicted := 0
	for key, stamps := range l.entries {
		recent := trim(stamps, cutoff)
		if len(recent) == 0 {
			delete(l.entries, key)
			evicted++
			continue
		}
		l.entries[key] = recent
	}
	return evicted
}

// trim drops timestamps at or before cutoff. Stamps are appended in order,
// so scanning from the front suffices.
func trim(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	return stamps[i:]
}
