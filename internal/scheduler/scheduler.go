// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package scheduler runs cron-driven background jobs: periodic upstream
// syncs (when a cron spec is configured) and the daily metric retention
// sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/models"
	syncmgr "github.com/pulseboard/pulseboard/internal/sync"
)

// retentionCronSpec runs the retention sweep nightly, off-peak.
const retentionCronSpec = "0 3 * * *"

// SyncTrigger starts a sync pass across all configured services.
type SyncTrigger interface {
	TriggerSync(ctx context.Context, service *models.ServiceName) ([]syncmgr.Result, error)
}

// MetricPruner deletes metrics older than a cutoff and can checkpoint
// the store to reclaim the freed space.
type MetricPruner interface {
	DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Checkpoint(ctx context.Context) error
}

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	cfg     *config.Config
	trigger SyncTrigger
	pruner  MetricPruner
}

// New creates a scheduler. trigger may be nil when no upstream services
// are configured; the retention sweep still runs.
func New(cfg *config.Config, trigger SyncTrigger, pruner MetricPruner) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		trigger: trigger,
		pruner:  pruner,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if spec := s.cfg.Sync.CronSpec; spec != "" && s.trigger != nil {
		if _, err := s.cron.AddFunc(spec, s.runSyncJob); err != nil {
			return fmt.Errorf("invalid sync cron spec %q: %w", spec, err)
		}
		logging.Info().Str("spec", spec).Msg("Scheduled periodic sync")
	}

	if s.pruner != nil && s.cfg.Analytics.RetentionDays > 0 {
		if _, err := s.cron.AddFunc(retentionCronSpec, s.runRetentionJob); err != nil {
			return fmt.Errorf("failed to schedule retention sweep: %w", err)
		}
		logging.Info().
			Int("retention_days", s.cfg.Analytics.RetentionDays).
			Str("spec", retentionCronSpec).
			Msg("Scheduled metric retention sweep")
	}

	s.cron.Start()
	logging.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
	return nil
}

// Stop stops the cron runner and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logging.Info().Msg("Scheduler stopped")
}

// Jobs returns the number of registered cron entries.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) runSyncJob() {
	start := time.Now()
	results, err := s.trigger.TriggerSync(context.Background(), nil)
	metrics.RecordScheduledJob("sync", time.Since(start), err)
	if err != nil {
		logging.Error().Err(err).Msg("Scheduled sync failed")
		return
	}

	processed := 0
	for _, r := range results {
		processed += r.RecordsProcessed
	}
	logging.Info().
		Int("services", len(results)).
		Int("records_processed", processed).
		Msg("Scheduled sync completed")
}

func (s *Scheduler) runRetentionJob() {
	start := time.Now()
	cutoff := time.Now().UTC().AddDate(0, 0, -s.cfg.Analytics.RetentionDays)

	deleted, err := s.pruner.DeleteMetricsBefore(context.Background(), cutoff)
	metrics.RecordScheduledJob("retention", time.Since(start), err)
	if err != nil {
		logging.Error().Err(err).Msg("Retention sweep failed")
		return
	}
	if deleted > 0 {
		if err := s.pruner.Checkpoint(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Checkpoint after retention sweep failed")
		}
	}
	logging.Info().
		Int64("deleted", deleted).
		Time("cutoff", cutoff).
		Msg("Retention sweep completed")
}
