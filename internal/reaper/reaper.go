// Package reaper deletes notification records past their expiry.
package reaper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// DefaultBatchLimit bounds one sweep; records beyond the cap are picked up
// by the next scheduled run.
const DefaultBatchLimit = 500

// Store is the slice of the repository the reaper needs.
type Store interface {
	ListExpiredIDs(ctx context.Context, before time.Time, limit int) ([]uuid.UUID, error)
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Reaper sweeps expired notifications on a daily schedule at a fixed
// local hour. Owned by the process supervisor; Run exits on ctx cancel.
type Reaper struct {
	repo  Store
	limit int
	hour  int
	loc   *time.Location
	now   func() time.Time
}

// New creates a Reaper firing daily at the given hour in loc. A
// non-positive limit falls back to DefaultBatchLimit.
func New(repo Store, limit, hour int, loc *time.Location) *Reaper {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Reaper{repo: repo, limit: limit, hour: hour, loc: loc, now: time.Now}
}

// Run blocks until ctx is cancelled, sweeping once per day.
func (r *Reaper) Run(ctx context.Context) {
	for {
		wait := time.Until(r.nextRun())
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			r.Sweep(ctx)
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// Sweep deletes one batch of expired records. Idempotent: with nothing
// expired it deletes zero records and returns normally.
func (r *Reaper) Sweep(ctx context.Context) {
	start := r.now()

	ids, err := r.repo.ListExpiredIDs(ctx, start, r.limit)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep: listing expired records failed")
		return
	}
	if len(ids) == 0 {
		log.Info().Dur("duration", r.now().Sub(start)).Msg("expiry sweep: nothing to delete")
		return
	}

	deleted, err := r.repo.DeleteMany(ctx, ids)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep: batch delete failed")
		return
	}

	log.Info().
		Int64("deleted", deleted).
		Dur("duration", r.now().Sub(start)).
		Msg("expiry sweep completed")
}

// nextRun returns the next occurrence of the configured hour in loc.
func (r *Reaper) nextRun() time.Time {
	now := r.now().In(r.loc)
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, r.loc)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
