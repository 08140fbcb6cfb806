// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package analytics implements trend prediction, seasonality-aware
// forecasting, comparative analysis, and custom statistical calculations
// over the metric store. All operations are stateless and read-only:
// each request recomputes from whatever is persisted, and zero matching
// metrics always produces a well-formed empty result rather than an
// error.
package analytics

import (
	"context"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// MetricSource is the slice of the metric store the engine reads from.
type MetricSource interface {
	ListMetrics(ctx context.Context, filter models.MetricFilter) ([]models.Metric, error)
	RecentMetricValues(ctx context.Context, filter models.MetricFilter, limit int) ([]float64, error)
	SumMetricValues(ctx context.Context, filter models.MetricFilter) (float64, error)
}

// Engine computes analytics over a metric source.
type Engine struct {
	store         MetricSource
	historyWindow int
}

// DefaultHistoryWindow is the number of most-recent points fed into
// trend prediction when no window is configured.
const DefaultHistoryWindow = 90

// NewEngine creates an analytics engine. historyWindow caps the points
// used by Predict; values below 2 fall back to the default.
func NewEngine(store MetricSource, historyWindow int) *Engine {
	if historyWindow < 2 {
		historyWindow = DefaultHistoryWindow
	}
	return &Engine{
		store:         store,
		historyWindow: historyWindow,
	}
}

// PredictionRequest parameterizes a linear-trend prediction.
type PredictionRequest struct {
	ServiceName     models.ServiceName `json:"service_name" validate:"required"`
	MetricType      models.MetricType  `json:"metric_type" validate:"required"`
	MetricName      string             `json:"metric_name,omitempty"`
	PredictionDays  int                `json:"prediction_days" validate:"min=1,max=365"`
	ConfidenceLevel float64            `json:"confidence_level" validate:"min=0.5,max=0.99"`
}

// ForecastRequest parameterizes a seasonality-aware forecast.
type ForecastRequest struct {
	ServiceName    models.ServiceName `json:"service_name" validate:"required"`
	MetricType     models.MetricType  `json:"metric_type" validate:"required"`
	MetricName     string             `json:"metric_name,omitempty"`
	ForecastPeriod string             `json:"forecast_period" validate:"oneof=day week month quarter year"`
	PeriodsAhead   int                `json:"periods_ahead" validate:"min=1,max=24"`
}

// ComparisonRequest parameterizes a comparative analysis.
type ComparisonRequest struct {
	MetricType     models.MetricType `json:"metric_type" validate:"required"`
	MetricName     string            `json:"metric_name,omitempty"`
	ComparisonType string            `json:"comparison_type" validate:"oneof=service time_period"`
	StartDate      *time.Time        `json:"start_date,omitempty"`
	EndDate        *time.Time        `json:"end_date,omitempty"`
}

// CalculationRequest parameterizes a custom statistical calculation.
type CalculationRequest struct {
	CalculationType string            `json:"calculation_type" validate:"required"`
	MetricType      models.MetricType `json:"metric_type" validate:"required"`
	MetricName      string            `json:"metric_name,omitempty"`
	StartDate       *time.Time        `json:"start_date,omitempty"`
	EndDate         *time.Time        `json:"end_date,omitempty"`
}

// baseFilter builds the common metric filter for a service/type/name triple.
func baseFilter(service models.ServiceName, metricType models.MetricType, metricName string) models.MetricFilter {
	filter := models.MetricFilter{
		ServiceName: &service,
		MetricType:  &metricType,
	}
	if metricName != "" {
		filter.MetricName = &metricName
	}
	return filter
}
