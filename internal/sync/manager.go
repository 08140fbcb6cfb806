// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

/*
manager.go - Sync Manager Lifecycle and Orchestration

The manager owns one collector per configured upstream service and runs
them on a periodic loop. Each run is recorded in the sync_runs table;
collection failures are recorded there and logged, never propagated to
the analytics read path.

Lifecycle:
  - NewManager(): build collectors for every enabled upstream service
  - Start()/Stop(): background periodic sync with coordinated shutdown
  - Serve(): blocking variant for running under a supervisor
  - TriggerSync(): manual sync execution (mutex-protected)

Thread safety:
  - syncMu prevents concurrent sync execution
  - mu protects running and lastSync
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/models"
)

// MetricStore defines the database operations the manager needs.
type MetricStore interface {
	InsertMetricsBatch(ctx context.Context, metrics []*models.Metric) (int, error)
	InsertSyncRun(ctx context.Context, run *models.SyncRun) error
	UpdateSyncRun(ctx context.Context, run *models.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
	LastCompletedSync(ctx context.Context, service models.ServiceName) (*models.SyncRun, error)
}

// Result summarizes one per-service sync run.
type Result struct {
	SyncID           uuid.UUID          `json:"sync_id"`
	ServiceName      models.ServiceName `json:"service_name"`
	Status           models.SyncStatus  `json:"status"`
	RecordsProcessed int                `json:"records_processed"`
	RecordsFailed    int                `json:"records_failed"`
	Error            string             `json:"error,omitempty"`
}

// Manager orchestrates data synchronization from the upstream services.
type Manager struct {
	store      MetricStore
	cfg        *config.Config
	collectors []*Collector
	fetchers   map[models.ServiceName]jsonFetcher

	mu       sync.RWMutex
	running  bool
	lastSync time.Time

	syncMu   sync.Mutex
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewManager creates a sync manager with one collector per upstream
// service that has a base URL configured.
func NewManager(store MetricStore, cfg *config.Config) *Manager {
	m := &Manager{
		store:    store,
		cfg:      cfg,
		fetchers: make(map[models.ServiceName]jsonFetcher),
		stopChan: make(chan struct{}),
	}

	for name, baseURL := range cfg.Services.EnabledServices() {
		service := models.ServiceName(name)
		collector := newCollector(service, baseURL)
		if collector == nil {
			logging.Warn().Str("service", name).Msg("No collector for configured service")
			continue
		}

		client := NewServiceClient(cfg.Sync.Timeout, cfg.Sync.RetryAttempts, cfg.Sync.RetryDelay, cfg.Services.AuthToken)
		m.collectors = append(m.collectors, collector)
		m.fetchers[service] = NewBreakerClient(client, name)
	}

	return m
}

// Collectors returns the upstream services this manager syncs.
func (m *Manager) Collectors() []models.ServiceName {
	services := make([]models.ServiceName, 0, len(m.collectors))
	for _, c := range m.collectors {
		services = append(services, c.Service())
	}
	return services
}

// Start begins periodic synchronization in the background.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.mu.Unlock()

	if len(m.collectors) == 0 {
		logging.Warn().Msg("No upstream services configured, sync manager idle")
		return nil
	}

	logging.Info().
		Dur("interval", m.cfg.Sync.Interval).
		Int("services", len(m.collectors)).
		Msg("Starting sync manager...")

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runLoop(ctx)
	}()

	return nil
}

// Stop gracefully shuts down the periodic sync and waits for completion.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	close(m.stopChan)
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")

	return nil
}

// Serve runs the periodic sync loop until the context is canceled.
// It satisfies suture.Service so the manager can run supervised.
func (m *Manager) Serve(ctx context.Context) error {
	if len(m.collectors) == 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	m.runLoop(ctx)
	return ctx.Err()
}

// String names the manager for supervisor logs.
func (m *Manager) String() string {
	return "sync-manager"
}

func (m *Manager) runLoop(ctx context.Context) {
	// Initial sync on startup, then the periodic interval.
	m.syncAll(ctx, "incremental")

	interval := m.cfg.Sync.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.syncAll(ctx, "incremental")
		}
	}
}

// TriggerSync manually synchronizes one service, or all services when
// service is nil. Concurrent syncs are serialized.
func (m *Manager) TriggerSync(ctx context.Context, service *models.ServiceName) ([]Result, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	if service == nil {
		return m.syncLocked(ctx, "manual", m.collectors), nil
	}

	for _, c := range m.collectors {
		if c.Service() == *service {
			return m.syncLocked(ctx, "manual", []*Collector{c}), nil
		}
	}
	return nil, fmt.Errorf("no collector configured for service %q", *service)
}

// LastSyncTime returns the completion time of the last sync pass.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}

func (m *Manager) syncAll(ctx context.Context, syncType string) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()
	m.syncLocked(ctx, syncType, m.collectors)
}

func (m *Manager) syncLocked(ctx context.Context, syncType string, collectors []*Collector) []Result {
	results := make([]Result, 0, len(collectors))
	for _, collector := range collectors {
		results = append(results, m.syncService(ctx, collector, syncType))
	}

	m.mu.Lock()
	m.lastSync = time.Now().UTC()
	m.mu.Unlock()

	return results
}

// syncService runs one collector and records the outcome in sync_runs.
// All failure modes end up in the run record; the returned Result mirrors
// it for manual trigger responses.
func (m *Manager) syncService(ctx context.Context, collector *Collector, syncType string) Result {
	service := collector.Service()
	start := time.Now()

	run := &models.SyncRun{
		ServiceName: service,
		SyncType:    syncType,
		Status:      models.SyncRunning,
		StartedAt:   start.UTC(),
	}
	if err := m.store.InsertSyncRun(ctx, run); err != nil {
		logging.Error().Err(err).Str("service", string(service)).Msg("Failed to record sync run")
		return Result{ServiceName: service, Status: models.SyncFailed, Error: err.Error()}
	}

	collected, failed, err := collector.Collect(ctx, m.fetchers[service], m.cfg.Sync.BatchSize, m.incrementalCutoff(ctx, service, syncType))
	if err != nil {
		m.completeRun(ctx, run, 0, failed, err)
		metrics.RecordSyncRun(string(service), time.Since(start), 0, err)
		return resultFromRun(run)
	}

	inserted := 0
	if len(collected) > 0 {
		inserted, err = m.store.InsertMetricsBatch(ctx, collected)
		if err != nil {
			m.completeRun(ctx, run, inserted, failed+len(collected)-inserted, err)
			metrics.RecordSyncRun(string(service), time.Since(start), inserted, err)
			return resultFromRun(run)
		}
	}

	m.completeRun(ctx, run, inserted, failed, nil)
	metrics.RecordSyncRun(string(service), time.Since(start), inserted, nil)

	logging.Info().
		Str("service", string(service)).
		Int("records_processed", inserted).
		Int("records_failed", failed).
		Dur("duration", time.Since(start)).
		Msg("Sync completed")

	return resultFromRun(run)
}

// incrementalCutoff returns the completion time of the last successful
// sync for the service, so incremental runs only fetch newer records.
// Manual runs and services with no completed sync fetch everything.
func (m *Manager) incrementalCutoff(ctx context.Context, service models.ServiceName, syncType string) *time.Time {
	if syncType != "incremental" {
		return nil
	}
	last, err := m.store.LastCompletedSync(ctx, service)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("service", string(service)).
			Msg("Failed to look up last completed sync, fetching full window")
		return nil
	}
	if last == nil || last.CompletedAt == nil {
		return nil
	}
	return last.CompletedAt
}

func (m *Manager) completeRun(ctx context.Context, run *models.SyncRun, processed, failed int, err error) {
	now := time.Now().UTC()
	run.RecordsProcessed = processed
	run.RecordsFailed = failed
	run.CompletedAt = &now

	if err != nil {
		run.Status = models.SyncFailed
		run.ErrorMessage = err.Error()
		logging.Error().
			Err(err).
			Str("service", string(run.ServiceName)).
			Msg("Sync failed")
	} else {
		run.Status = models.SyncCompleted
	}

	if updateErr := m.store.UpdateSyncRun(ctx, run); updateErr != nil {
		logging.Error().
			Err(updateErr).
			Str("service", string(run.ServiceName)).
			Msg("Failed to update sync run record")
	}
}

func resultFromRun(run *models.SyncRun) Result {
	return Result{
		SyncID:           run.ID,
		ServiceName:      run.ServiceName,
		Status:           run.Status,
		RecordsProcessed: run.RecordsProcessed,
		RecordsFailed:    run.RecordsFailed,
		Error:            run.ErrorMessage,
	}
}
