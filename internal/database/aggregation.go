// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package database

import (
	"context"
	"fmt"

	"github.com/pulseboard/pulseboard/internal/models"
)

// aggregationColumns maps allowed group-by fields to their SQL column
// expressions. The map doubles as the whitelist: any field outside it is
// rejected before query construction, so group-by input never reaches
// SQL text directly.
var aggregationColumns = map[string]string{
	"service_name": "service_name",
	"metric_type":  "metric_type",
	"metric_name":  "metric_name",
	"date":         "CAST(date AS VARCHAR)",
}

// AggregateMetrics computes count, sum, avg, min, and max of metric
// values grouped by the given field. An empty result set returns an
// empty slice, not an error.
func (db *DB) AggregateMetrics(ctx context.Context, filter models.MetricFilter, groupBy string) ([]models.AggregationResult, error) {
	column, ok := aggregationColumns[groupBy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGroupBy, groupBy)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildMetricConditions(filter)
	query := fmt.Sprintf(`
		SELECT %s AS group_key,
			COUNT(*) AS count,
			SUM(value) AS sum,
			AVG(value) AS avg,
			MIN(value) AS min,
			MAX(value) AS max
		FROM metrics%s
		GROUP BY group_key
		ORDER BY group_key`, column, where)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate metrics: %w", err)
	}
	defer closeRows(rows)

	results := make([]models.AggregationResult, 0)
	for rows.Next() {
		var r models.AggregationResult
		if err := rows.Scan(&r.GroupKey, &r.Count, &r.Sum, &r.Avg, &r.Min, &r.Max); err != nil {
			return nil, fmt.Errorf("failed to scan aggregation row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregation iteration failed: %w", err)
	}
	return results, nil
}

// MetricTimeSeries returns daily aggregation buckets for metrics
// matching the filter, oldest first. Days with no metrics produce no
// bucket.
func (db *DB) MetricTimeSeries(ctx context.Context, filter models.MetricFilter) ([]models.TimeSeriesPoint, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildMetricConditions(filter)
	query := `
		SELECT CAST(date AS VARCHAR) AS bucket,
			COUNT(*) AS count,
			SUM(value) AS sum,
			AVG(value) AS avg,
			MIN(value) AS min,
			MAX(value) AS max
		FROM metrics` + where + `
		GROUP BY bucket
		ORDER BY bucket`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query time series: %w", err)
	}
	defer closeRows(rows)

	points := make([]models.TimeSeriesPoint, 0)
	for rows.Next() {
		var p models.TimeSeriesPoint
		if err := rows.Scan(&p.Timestamp, &p.Count, &p.Sum, &p.Avg, &p.Min, &p.Max); err != nil {
			return nil, fmt.Errorf("failed to scan time series row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("time series iteration failed: %w", err)
	}
	return points, nil
}

// AllowedGroupByFields returns the group-by fields accepted by
// AggregateMetrics, for validation error messages.
func AllowedGroupByFields() []string {
	return []string{"service_name", "metric_type", "metric_name", "date"}
}
