// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package services

import (
	"context"
)

// CronScheduler matches the scheduler lifecycle. *scheduler.Scheduler
// satisfies it.
type CronScheduler interface {
	Start() error
	Stop()
}

// SchedulerService runs the cron scheduler under supervision. The
// scheduler's own goroutines do the work; this service starts it, parks
// until the context ends, then stops it.
type SchedulerService struct {
	scheduler CronScheduler
}

// NewSchedulerService wraps a cron scheduler.
func NewSchedulerService(scheduler CronScheduler) *SchedulerService {
	return &SchedulerService{scheduler: scheduler}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.scheduler.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logging.
func (s *SchedulerService) String() string {
	return "cron-scheduler"
}
