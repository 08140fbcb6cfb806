// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

func seedAggregationMetrics(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	seed := []*models.Metric{
		testMetric(models.ServiceAuth, models.MetricEngagement, "logins", 10, base),
		testMetric(models.ServiceAuth, models.MetricEngagement, "logins", 20, base.AddDate(0, 0, 1)),
		testMetric(models.ServiceAuth, models.MetricEngagement, "logins", 30, base.AddDate(0, 0, 2)),
		testMetric(models.ServiceContent, models.MetricEngagement, "views", 100, base),
		testMetric(models.ServicePartnersCRM, models.MetricDonation, "donations", 55.5, base.AddDate(0, 0, 1)),
	}
	if _, err := db.InsertMetricsBatch(ctx, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
}

func TestAggregateMetricsByService(t *testing.T) {
	db := setupTestDB(t)
	seedAggregationMetrics(t, db)

	results, err := db.AggregateMetrics(context.Background(), models.MetricFilter{}, "service_name")
	if err != nil {
		t.Fatalf("AggregateMetrics failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(results))
	}

	// Results ordered by group key: auth, content, partners_crm
	auth := results[0]
	if auth.GroupKey != "auth" {
		t.Fatalf("expected first group auth, got %s", auth.GroupKey)
	}
	if auth.Count != 3 {
		t.Errorf("expected auth count 3, got %d", auth.Count)
	}
	if auth.Sum != 60 {
		t.Errorf("expected auth sum 60, got %f", auth.Sum)
	}
	if auth.Avg != 20 {
		t.Errorf("expected auth avg 20, got %f", auth.Avg)
	}
	if auth.Min != 10 || auth.Max != 30 {
		t.Errorf("expected auth min 10 max 30, got %f/%f", auth.Min, auth.Max)
	}
}

func TestAggregateMetricsByDate(t *testing.T) {
	db := setupTestDB(t)
	seedAggregationMetrics(t, db)

	results, err := db.AggregateMetrics(context.Background(), models.MetricFilter{}, "date")
	if err != nil {
		t.Fatalf("AggregateMetrics failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 date buckets, got %d", len(results))
	}
	if results[0].GroupKey != "2026-04-01" {
		t.Errorf("expected first bucket 2026-04-01, got %s", results[0].GroupKey)
	}
	// 2026-04-01: logins 10 + views 100
	if results[0].Count != 2 || results[0].Sum != 110 {
		t.Errorf("expected count 2 sum 110, got %d/%f", results[0].Count, results[0].Sum)
	}
}

func TestAggregateMetricsWithFilter(t *testing.T) {
	db := setupTestDB(t)
	seedAggregationMetrics(t, db)

	service := models.ServiceAuth
	results, err := db.AggregateMetrics(context.Background(),
		models.MetricFilter{ServiceName: &service}, "metric_name")
	if err != nil {
		t.Fatalf("AggregateMetrics failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 group, got %d", len(results))
	}
	if results[0].GroupKey != "logins" {
		t.Errorf("expected group logins, got %s", results[0].GroupKey)
	}
}

func TestAggregateMetricsInvalidGroupBy(t *testing.T) {
	db := setupTestDB(t)

	invalid := []string{"value", "unit", "", "service_name; DROP TABLE metrics"}
	for _, field := range invalid {
		_, err := db.AggregateMetrics(context.Background(), models.MetricFilter{}, field)
		if !errors.Is(err, ErrInvalidGroupBy) {
			t.Errorf("group_by %q: expected ErrInvalidGroupBy, got %v", field, err)
		}
	}
}

func TestAggregateMetricsEmpty(t *testing.T) {
	db := setupTestDB(t)

	results, err := db.AggregateMetrics(context.Background(), models.MetricFilter{}, "service_name")
	if err != nil {
		t.Fatalf("AggregateMetrics on empty table failed: %v", err)
	}
	if results == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(results) != 0 {
		t.Errorf("expected 0 groups, got %d", len(results))
	}
}

func TestMetricTimeSeries(t *testing.T) {
	db := setupTestDB(t)
	seedAggregationMetrics(t, db)

	points, err := db.MetricTimeSeries(context.Background(), models.MetricFilter{})
	if err != nil {
		t.Fatalf("MetricTimeSeries failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 daily buckets, got %d", len(points))
	}
	if points[0].Timestamp != "2026-04-01" {
		t.Errorf("expected oldest bucket first, got %s", points[0].Timestamp)
	}
	if points[1].Sum != 75.5 {
		t.Errorf("expected 2026-04-02 sum 75.5, got %f", points[1].Sum)
	}
}

func TestMetricTimeSeriesEmpty(t *testing.T) {
	db := setupTestDB(t)

	points, err := db.MetricTimeSeries(context.Background(), models.MetricFilter{})
	if err != nil {
		t.Fatalf("MetricTimeSeries on empty table failed: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("expected 0 points, got %d", len(points))
	}
}
