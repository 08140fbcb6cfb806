// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package api provides the HTTP surface of Pulseboard: metric ingestion
// and querying, analytics, goal tracking, sync control, report export,
// and health probes. Routing uses Chi with go-chi/cors and go-chi/httprate
// middleware; every endpoint responds with the models.APIResponse envelope.
package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/cache"
	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/goals"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/reports"
	syncmgr "github.com/pulseboard/pulseboard/internal/sync"
)

// MetricStore is the subset of the database layer the handlers need.
// *database.DB satisfies it; tests substitute fakes.
type MetricStore interface {
	InsertMetric(ctx context.Context, metric *models.Metric) error
	GetMetric(ctx context.Context, id uuid.UUID) (*models.Metric, error)
	ListMetrics(ctx context.Context, filter models.MetricFilter) ([]models.Metric, error)
	CountMetrics(ctx context.Context, filter models.MetricFilter) (int64, error)
	DeleteMetric(ctx context.Context, id uuid.UUID) error
	AggregateMetrics(ctx context.Context, filter models.MetricFilter, groupBy string) ([]models.AggregationResult, error)
	MetricTimeSeries(ctx context.Context, filter models.MetricFilter) ([]models.TimeSeriesPoint, error)
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
	Ping(ctx context.Context) error
	GetRecordCounts(ctx context.Context) (metrics int64, goals int64, err error)
}

// SyncService triggers upstream collection runs. *sync.Manager satisfies it.
type SyncService interface {
	TriggerSync(ctx context.Context, service *models.ServiceName) ([]syncmgr.Result, error)
	LastSyncTime() time.Time
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store     MetricStore
	analytics *analytics.Engine
	goals     *goals.Engine
	sync      SyncService
	exporter  *reports.Exporter
	cache     *cache.Cache
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a Handler. The sync service may be nil when upstream
// collection is disabled; the analytics cache may be nil to disable
// response caching.
func NewHandler(store MetricStore, analyticsEngine *analytics.Engine, goalEngine *goals.Engine, syncService SyncService, analyticsCache *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		store:     store,
		analytics: analyticsEngine,
		goals:     goalEngine,
		sync:      syncService,
		exporter:  reports.NewExporter(),
		cache:     analyticsCache,
		config:    cfg,
		startTime: time.Now(),
	}
}

// pageSizeConfig returns the default and maximum page sizes, falling back
// to safe values when config is absent.
func (h *Handler) pageSizeConfig() (defaultSize, maxSize int) {
	defaultSize, maxSize = 100, 1000
	if h.config != nil && h.config.API.DefaultPageSize > 0 {
		defaultSize = h.config.API.DefaultPageSize
	}
	if h.config != nil && h.config.API.MaxPageSize > 0 {
		maxSize = h.config.API.MaxPageSize
	}
	return defaultSize, maxSize
}
