package usecase

import (
	"context"
	"log/slog"
	"time"

	"ContentPipeline/internal/ports"
)

// Scheduler wires the interval driver with both pipeline stages for
// daemon-mode operation. A run-level fatal error ends that tick only; the
// next tick starts a fresh run.
type Scheduler struct {
	driver     ports.Scheduler
	controller *Controller
	publisher  *Publisher
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, controller *Controller, publisher *Publisher, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, controller: controller, publisher: publisher, logger: logger}
}

// Start registers both stages with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	job := func(trigger time.Time) {
		if s.controller != nil {
			if _, err := s.controller.Run(ctx); err != nil {
				s.logger.Error("scheduled writing run failed", "error", err)
			}
		}
		if s.publisher != nil {
			if _, err := s.publisher.Run(ctx, trigger); err != nil {
				s.logger.Error("scheduled publishing run failed", "error", err)
			}
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
