// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package main is the entry point for the Pulseboard server.
//
// Pulseboard aggregates operational metrics from the upstream
// microservices (partners CRM, projects, social media, notifications)
// into a single DuckDB store and serves analytics, goal tracking, and
// reporting over a REST API.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading via Koanf v2 (defaults, config
//     file, environment variables)
//  2. Database: DuckDB with the metrics, goals, and sync_runs tables
//  3. Engines: analytics (trends, forecasts, comparisons) and goals
//     (progress, alerting, forecasting)
//  4. Sync manager: circuit-breaker-wrapped collectors for each
//     configured upstream service
//  5. Scheduler: cron-driven syncs and metric retention pruning
//  6. HTTP server: Chi-routed REST API with Prometheus metrics
//
// The long-running pieces (sync manager, scheduler, HTTP server) run
// under a suture supervision tree so a crash in one layer restarts that
// layer without taking the process down.
//
// # Configuration
//
// Configuration comes from environment variables prefixed PULSEBOARD_
// and an optional config.yaml. Minimal example:
//
//	export PULSEBOARD_DUCKDB_PATH=/data/pulseboard.db
//	export PULSEBOARD_PARTNERS_CRM_SERVICE_URL=http://partners:8000
//	export PULSEBOARD_SYNC_ENABLED=true
//	./pulseboard
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP server drains
// in-flight requests (10s timeout), the sync manager finishes or
// abandons its current run, and the database closes cleanly.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/api"
	"github.com/pulseboard/pulseboard/internal/cache"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/database"
	"github.com/pulseboard/pulseboard/internal/goals"
	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/notify"
	"github.com/pulseboard/pulseboard/internal/scheduler"
	"github.com/pulseboard/pulseboard/internal/supervisor"
	"github.com/pulseboard/pulseboard/internal/supervisor/services"
	syncmgr "github.com/pulseboard/pulseboard/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Int("upstream_services", len(cfg.Services.EnabledServices())).
		Msg("Starting Pulseboard")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Str("path", db.GetDatabasePath()).Msg("Database initialized")

	// Engines. The webhook notifier is layered over the log notifier so
	// alerts are always visible in the logs even when delivery fails.
	notifier := buildNotifier(cfg)
	goalEngine := goals.NewEngine(db, notifier)
	analyticsEngine := analytics.NewEngine(db, cfg.Analytics.PredictionWindow)

	analyticsCache := cache.New("analytics", cfg.Analytics.CacheTTL)

	// Supervision tree: ingest layer (sync, scheduler) + API layer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	var syncManager *syncmgr.Manager
	if cfg.Sync.Enabled {
		syncManager = syncmgr.NewManager(db, cfg)
		tree.AddIngestService(syncManager)
		logging.Info().
			Int("collectors", len(syncManager.Collectors())).
			Dur("interval", cfg.Sync.Interval).
			Msg("Sync manager added to supervisor tree")
	} else {
		logging.Info().Msg("Sync disabled; running API-only")
	}

	if cfg.Sync.CronSpec != "" || cfg.Analytics.RetentionDays > 0 {
		var trigger scheduler.SyncTrigger
		if syncManager != nil {
			trigger = syncManager
		}
		sched := scheduler.New(cfg, trigger, db)
		tree.AddIngestService(services.NewSchedulerService(sched))
		logging.Info().
			Str("cron_spec", cfg.Sync.CronSpec).
			Int("retention_days", cfg.Analytics.RetentionDays).
			Msg("Scheduler added to supervisor tree")
	}

	var syncService api.SyncService
	if syncManager != nil {
		syncService = syncManager
	}
	handler := api.NewHandler(db, analyticsEngine, goalEngine, syncService, analyticsCache, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Pulseboard stopped gracefully")
}

// buildNotifier assembles the goal alert channel: always the log
// notifier, plus the webhook notifier when a URL is configured.
func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Notify.WebhookURL == "" {
		return notify.NewLogNotifier()
	}
	return notify.NewMultiNotifier(
		notify.NewLogNotifier(),
		notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout),
	)
}
