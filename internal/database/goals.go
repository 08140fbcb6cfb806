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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/models"
)

// CreateGoal stores a new goal. ID and timestamps are filled in when
// zero; status defaults to active.
func (db *DB) CreateGoal(ctx context.Context, goal *models.Goal) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	if goal.Status == "" {
		goal.Status = models.GoalActive
	}
	now := time.Now().UTC()
	if goal.CreatedAt.IsZero() {
		goal.CreatedAt = now
	}
	goal.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO goals (id, name, description, metric_type, target_value, current_value, unit,
			start_date, end_date, status, progress_percentage, alert_threshold, alert_sent,
			forecast_value, forecast_updated_at, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goal.ID.String(), goal.Name, nullString(goal.Description), string(goal.MetricType),
		goal.TargetValue, goal.CurrentValue, nullString(goal.Unit),
		goal.StartDate, goal.EndDate, string(goal.Status), goal.ProgressPercentage,
		goal.AlertThreshold, goal.AlertSent, goal.ForecastValue, goal.ForecastUpdatedAt,
		nullUUID(goal.CreatedBy), goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID.
func (db *DB) GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	row := db.conn.QueryRowContext(ctx, goalSelectColumns+" FROM goals WHERE id = ?", id.String())

	goal, err := scanGoal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get goal: %w", err)
	}
	return goal, nil
}

// ListGoals returns goals optionally filtered by status and metric type,
// newest first.
func (db *DB) ListGoals(ctx context.Context, status *models.GoalStatus, metricType *models.MetricType) ([]models.Goal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var conditions []string
	var args []any
	if status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*status))
	}
	if metricType != nil {
		conditions = append(conditions, "metric_type = ?")
		args = append(args, string(*metricType))
	}

	query := goalSelectColumns + " FROM goals"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer closeRows(rows)

	goals := make([]models.Goal, 0)
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, *goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("goal iteration failed: %w", err)
	}
	return goals, nil
}

// UpdateGoal persists all mutable fields of a goal in a single UPDATE.
// The goals engine serializes read-modify-write cycles per goal, so the
// single statement keeps each persisted state internally consistent.
func (db *DB) UpdateGoal(ctx context.Context, goal *models.Goal) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	goal.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx, `
		UPDATE goals SET
			name = ?, description = ?, metric_type = ?, target_value = ?, current_value = ?,
			unit = ?, start_date = ?, end_date = ?, status = ?, progress_percentage = ?,
			alert_threshold = ?, alert_sent = ?, forecast_value = ?, forecast_updated_at = ?,
			updated_at = ?
		WHERE id = ?`,
		goal.Name, nullString(goal.Description), string(goal.MetricType), goal.TargetValue, goal.CurrentValue,
		nullString(goal.Unit), goal.StartDate, goal.EndDate, string(goal.Status), goal.ProgressPercentage,
		goal.AlertThreshold, goal.AlertSent, goal.ForecastValue, goal.ForecastUpdatedAt,
		goal.UpdatedAt, goal.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// DeleteGoal removes a goal by ID.
func (db *DB) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, "DELETE FROM goals WHERE id = ?", id.String())
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return ErrGoalNotFound
	}
	return nil
}

// UUID columns are CAST to VARCHAR because DuckDB's Go driver returns
// them as raw bytes when scanned into a string.
const goalSelectColumns = `SELECT CAST(id AS VARCHAR), name, description, metric_type, target_value, current_value, unit,
	start_date, end_date, status, progress_percentage, alert_threshold, alert_sent,
	forecast_value, forecast_updated_at, CAST(created_by AS VARCHAR), created_at, updated_at`

func scanGoal(row rowScanner) (*models.Goal, error) {
	var (
		goal              models.Goal
		id                string
		description       sql.NullString
		metricType        string
		unit              sql.NullString
		status            string
		alertThreshold    sql.NullFloat64
		forecastValue     sql.NullFloat64
		forecastUpdatedAt sql.NullTime
		createdBy         sql.NullString
	)

	err := row.Scan(&id, &goal.Name, &description, &metricType, &goal.TargetValue, &goal.CurrentValue,
		&unit, &goal.StartDate, &goal.EndDate, &status, &goal.ProgressPercentage,
		&alertThreshold, &goal.AlertSent, &forecastValue, &forecastUpdatedAt,
		&createdBy, &goal.CreatedAt, &goal.UpdatedAt)
	if err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid goal ID %q: %w", id, err)
	}
	goal.ID = parsed
	goal.Description = description.String
	goal.MetricType = models.MetricType(metricType)
	goal.Unit = unit.String
	goal.Status = models.GoalStatus(status)

	if alertThreshold.Valid {
		goal.AlertThreshold = &alertThreshold.Float64
	}
	if forecastValue.Valid {
		goal.ForecastValue = &forecastValue.Float64
	}
	if forecastUpdatedAt.Valid {
		t := forecastUpdatedAt.Time
		goal.ForecastUpdatedAt = &t
	}
	if createdBy.Valid && createdBy.String != "" {
		creator, err := uuid.Parse(createdBy.String)
		if err != nil {
			return nil, fmt.Errorf("invalid goal creator ID %q: %w", createdBy.String, err)
		}
		goal.CreatedBy = creator
	}
	return &goal, nil
}

// nullUUID converts the zero UUID to NULL for storage.
func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}
