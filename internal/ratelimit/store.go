package ratelimit

import (
	"context"
	"time"

	"github.com/campo-social/notification/internal/domain"
)

// RecentCounter counts how many notifications a sender created after a
// given instant. Satisfied by the notification repository.
type RecentCounter interface {
	CountCreatedBySince(ctx context.Context, fromUserID string, since time.Time) (int64, error)
}

// StoreLimiter is the authoritative variant: the window is derived on each
// check from persisted creation timestamps, so it holds across concurrent
// instances.
type StoreLimiter struct {
	counter   RecentCounter
	window    time.Duration
	threshold int64
	now       func() time.Time
}

// NewStoreLimiter creates a StoreLimiter. Non-positive window/threshold
// fall back to the defaults.
func NewStoreLimiter(counter RecentCounter, window time.Duration, threshold int) *StoreLimiter {
	if window <= 0 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &StoreLimiter{counter: counter, window: window, threshold: int64(threshold), now: time.Now}
}

// Allow fails with CodeResourceExhausted when the sender already created
// threshold notifications inside the trailing window. The request being
// checked is not yet persisted, so it is never counted here.
func (l *StoreLimiter) Allow(ctx context.Context, key string) error {
	count, err := l.counter.CountCreatedBySince(ctx, key, l.now().Add(-l.window))
	if err != nil {
		return domain.Wrap(domain.CodeInternal, err, "rate limit count")
	}
	if count >= l.threshold {
		return domain.E(domain.CodeResourceExhausted,
			"limit of %d notifications per %s exceeded, try again later", l.threshold, l.window)
	}
	return nil
}
