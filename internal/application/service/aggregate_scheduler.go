package service

import (
	"context"
	"time"

	"github.com/stategrc/posturehub/pkg/constants"
	"github.com/stategrc/posturehub/pkg/errors"
	"github.com/stategrc/posturehub/pkg/logger"
)

// AggregateScheduler fires one aggregate run per day at a fixed UTC hour.
// It runs until its context is cancelled. A failed run is logged and left
// alone; the next day's run recomputes from current state.
type AggregateScheduler struct {
	aggregator *AggregateAppService
	hourUTC    int
	logger     logger.Logger
}

// NewAggregateScheduler creates a scheduler firing at the given UTC hour.
func NewAggregateScheduler(aggregator *AggregateAppService, hourUTC int, log logger.Logger) *AggregateScheduler {
	return &AggregateScheduler{
		aggregator: aggregator,
		hourUTC:    hourUTC,
		logger:     log.WithComponent("aggregate_scheduler"),
	}
}

// Run blocks, firing runs until ctx is cancelled.
func (s *AggregateScheduler) Run(ctx context.Context) {
	s.logger.Info(ctx, "Aggregate scheduler started",
		logger.Int("hour_utc", s.hourUTC),
	)

	for {
		next := s.nextRun(time.Now().UTC())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info(ctx, "Aggregate scheduler stopped")
			return
		case <-timer.C:
		}

		if _, err := s.aggregator.RunOnce(ctx, next); err != nil {
			// An overlapping manual trigger is not a scheduler failure.
			if errors.IsCode(err, constants.ErrCodeRunInProgress) {
				s.logger.Warn(ctx, "Scheduled run skipped, another run in progress")
				continue
			}
			s.logger.Error(ctx, "Scheduled aggregate run failed", err,
				logger.Time("scheduled_at", next),
			)
		}
	}
}

// nextRun returns the next occurrence of the configured hour strictly after
// now.
func (s *AggregateScheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
