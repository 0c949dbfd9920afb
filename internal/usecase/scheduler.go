package usecase

import (
	"context"
	"time"

	"HempNewsPipeline/internal/ports"
)

// Scheduler wires the interval driver with the moderation cycle.
type Scheduler struct {
	driver     ports.Scheduler
	moderation *Moderation
}

// NewScheduler returns a helper to start/stop recurring moderation passes.
func NewScheduler(driver ports.Scheduler, moderation *Moderation) *Scheduler {
	return &Scheduler{driver: driver, moderation: moderation}
}

// Start registers the moderation cycle with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.moderation == nil {
		return nil
	}

	job := func(time.Time) {
		if err := s.moderation.Cycle(ctx); err != nil {
			s.moderation.logger.Error("moderation cycle failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
