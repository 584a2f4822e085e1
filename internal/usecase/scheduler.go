package usecase

import (
	"context"
	"time"

	"SLComply/internal/ports"
)

// Scheduler wires the interval driver with the review service refresh.
type Scheduler struct {
	driver  ports.Scheduler
	service *ReviewService
}

// NewScheduler returns a helper to start/stop the recurring refresh.
func NewScheduler(driver ports.Scheduler, service *ReviewService) *Scheduler {
	return &Scheduler{driver: driver, service: service}
}

// Start registers the refresh with the provided scheduler. Failures are
// logged by the service and retried on the next tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.service == nil {
		return nil
	}

	job := func(time.Time) {
		_ = s.service.Refresh(ctx)
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
