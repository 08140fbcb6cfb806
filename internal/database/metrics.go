// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/models"
)

// InsertMetric stores a single metric. ID, Date, and CreatedAt are
// filled in when zero.
func (db *DB) InsertMetric(ctx context.Context, metric *models.Metric) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	normalizeMetric(metric)

	dimensions, meta, err := encodeMetricJSON(metric)
	if err != nil {
		return err
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO metrics (id, service_name, metric_type, metric_name, value, unit, dimensions, timestamp, date, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		metric.ID.String(), string(metric.ServiceName), string(metric.MetricType), metric.MetricName,
		metric.Value, nullString(metric.Unit), dimensions, metric.Timestamp, metric.Date, meta, metric.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert metric: %w", err)
	}
	return nil
}

// InsertMetricsBatch stores a batch of metrics inside a single
// transaction. Returns the number of rows inserted. A failed row aborts
// the whole batch; callers retry or record the failure in sync_runs.
func (db *DB) InsertMetricsBatch(ctx context.Context, metrics []*models.Metric) (int, error) {
	if len(metrics) == 0 {
		return 0, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metrics (id, service_name, metric_type, metric_name, value, unit, dimensions, timestamp, date, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer closeQuietly(stmt)

	inserted := 0
	for _, metric := range metrics {
		normalizeMetric(metric)

		dimensions, meta, err := encodeMetricJSON(metric)
		if err != nil {
			return inserted, err
		}

		if _, err := stmt.ExecContext(ctx,
			metric.ID.String(), string(metric.ServiceName), string(metric.MetricType), metric.MetricName,
			metric.Value, nullString(metric.Unit), dimensions, metric.Timestamp, metric.Date, meta, metric.CreatedAt); err != nil {
			return inserted, fmt.Errorf("failed to insert metric %s: %w", metric.ID, err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit batch: %w", err)
	}
	return inserted, nil
}

// GetMetric retrieves a single metric by ID.
func (db *DB) GetMetric(ctx context.Context, id uuid.UUID) (*models.Metric, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	// CAST to VARCHAR because DuckDB's Go driver returns UUID columns
	// as raw bytes when scanned into a string.
	row := db.conn.QueryRowContext(ctx, `
		SELECT CAST(id AS VARCHAR), service_name, metric_type, metric_name, value, unit, dimensions, timestamp, date, meta, created_at
		FROM metrics WHERE id = ?`, id.String())

	metric, err := scanMetric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMetricNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metric: %w", err)
	}
	return metric, nil
}

// ListMetrics returns metrics matching the filter, newest first.
func (db *DB) ListMetrics(ctx context.Context, filter models.MetricFilter) ([]models.Metric, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildMetricConditions(filter)
	query := `
		SELECT CAST(id AS VARCHAR), service_name, metric_type, metric_name, value, unit, dimensions, timestamp, date, meta, created_at
		FROM metrics` + where + ` ORDER BY timestamp DESC`

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list metrics: %w", err)
	}
	defer closeRows(rows)

	metrics := make([]models.Metric, 0)
	for rows.Next() {
		metric, err := scanMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metric: %w", err)
		}
		metrics = append(metrics, *metric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metric iteration failed: %w", err)
	}
	return metrics, nil
}

// CountMetrics returns the number of metrics matching the filter.
func (db *DB) CountMetrics(ctx context.Context, filter models.MetricFilter) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildMetricConditions(filter)

	var count int64
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM metrics"+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count metrics: %w", err)
	}
	return count, nil
}

// RecentMetricValues returns up to limit metric values matching the
// filter, ordered oldest to newest. The query reads the newest rows and
// reverses them so the caller always gets the most recent window in
// chronological order.
func (db *DB) RecentMetricValues(ctx context.Context, filter models.MetricFilter, limit int) ([]float64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildMetricConditions(filter)
	query := "SELECT value FROM metrics" + where + " ORDER BY timestamp DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metric values: %w", err)
	}
	defer closeRows(rows)

	values := make([]float64, 0)
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan metric value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metric value iteration failed: %w", err)
	}

	// Reverse into chronological order
	for i, j := 0, len(values)-1; i < j; i, j = i+1, j-1 {
		values[i], values[j] = values[j], values[i]
	}
	return values, nil
}

// SumMetricValues returns the sum of values matching the filter, 0 when
// nothing matches.
func (db *DB) SumMetricValues(ctx context.Context, filter models.MetricFilter) (float64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	where, args := buildMetricConditions(filter)

	var sum float64
	err := db.conn.QueryRowContext(ctx, "SELECT COALESCE(SUM(value), 0) FROM metrics"+where, args...).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum metric values: %w", err)
	}
	return sum, nil
}

// DeleteMetric removes a metric by ID.
func (db *DB) DeleteMetric(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM metrics WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete metric: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrMetricNotFound
	}
	return nil
}

// DeleteMetricsBefore removes metrics older than the cutoff date.
// Used by the retention sweep.
func (db *DB) DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM metrics WHERE date < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired metrics: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected, nil
}

// normalizeMetric fills derived and defaulted fields before insert.
func normalizeMetric(metric *models.Metric) {
	if metric.ID == uuid.Nil {
		metric.ID = uuid.New()
	}
	if metric.Timestamp.IsZero() {
		metric.Timestamp = time.Now().UTC()
	}
	if metric.Date.IsZero() {
		metric.Date = metric.Timestamp.Truncate(24 * time.Hour)
	}
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = time.Now().UTC()
	}
}

// encodeMetricJSON serializes the dimensions and meta maps for storage.
// Empty maps store as NULL.
func encodeMetricJSON(metric *models.Metric) (dimensions, meta any, err error) {
	dimensions = nil
	if len(metric.Dimensions) > 0 {
		raw, err := json.Marshal(metric.Dimensions)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode dimensions: %w", err)
		}
		dimensions = string(raw)
	}
	meta = nil
	if len(metric.Meta) > 0 {
		raw, err := json.Marshal(metric.Meta)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode meta: %w", err)
		}
		meta = string(raw)
	}
	return dimensions, meta, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMetric(row rowScanner) (*models.Metric, error) {
	var (
		metric     models.Metric
		id         string
		service    string
		metricType string
		unit       sql.NullString
		dimensions sql.NullString
		meta       sql.NullString
	)

	err := row.Scan(&id, &service, &metricType, &metric.MetricName, &metric.Value,
		&unit, &dimensions, &metric.Timestamp, &metric.Date, &meta, &metric.CreatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid metric ID %q: %w", id, err)
	}
	metric.ID = parsed
	metric.ServiceName = models.ServiceName(service)
	metric.MetricType = models.MetricType(metricType)
	metric.Unit = unit.String

	if dimensions.Valid && dimensions.String != "" {
		if err := json.Unmarshal([]byte(dimensions.String), &metric.Dimensions); err != nil {
			return nil, fmt.Errorf("failed to decode dimensions: %w", err)
		}
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &metric.Meta); err != nil {
			return nil, fmt.Errorf("failed to decode meta: %w", err)
		}
	}
	return &metric, nil
}

// nullString converts an empty string to NULL for storage.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
