// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/models"
)

// InsertSyncRun records the start of a synchronization attempt.
func (db *DB) InsertSyncRun(ctx context.Context, run *models.SyncRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sync_runs (id, service_name, sync_type, status, records_processed, records_failed, error_message, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), string(run.ServiceName), run.SyncType, string(run.Status),
		run.RecordsProcessed, run.RecordsFailed, nullString(run.ErrorMessage),
		run.StartedAt, run.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// UpdateSyncRun persists the outcome of a synchronization attempt.
func (db *DB) UpdateSyncRun(ctx context.Context, run *models.SyncRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	_, err := db.conn.ExecContext(ctx, `
		UPDATE sync_runs SET status = ?, records_processed = ?, records_failed = ?, error_message = ?, completed_at = ?
		WHERE id = ?`,
		string(run.Status), run.RecordsProcessed, run.RecordsFailed,
		nullString(run.ErrorMessage), run.CompletedAt, run.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the most recent sync runs, newest first.
func (db *DB) ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	// CAST to VARCHAR because DuckDB's Go driver returns UUID columns
	// as raw bytes when scanned into a string.
	rows, err := db.conn.QueryContext(ctx, `
		SELECT CAST(id AS VARCHAR), service_name, sync_type, status, records_processed, records_failed, error_message, started_at, completed_at
		FROM sync_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer closeRows(rows)

	runs := make([]models.SyncRun, 0, limit)
	for rows.Next() {
		var (
			run         models.SyncRun
			id          string
			service     string
			status      string
			errMessage  sql.NullString
			completedAt sql.NullTime
		)
		if err := rows.Scan(&id, &service, &run.SyncType, &status,
			&run.RecordsProcessed, &run.RecordsFailed, &errMessage,
			&run.StartedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid sync run ID %q: %w", id, err)
		}
		run.ID = parsed
		run.ServiceName = models.ServiceName(service)
		run.Status = models.SyncStatus(status)
		run.ErrorMessage = errMessage.String
		if completedAt.Valid {
			t := completedAt.Time
			run.CompletedAt = &t
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sync run iteration failed: %w", err)
	}
	return runs, nil
}

// LastCompletedSync returns the completion time of the most recent
// successful sync for a service, or nil if none exists.
func (db *DB) LastCompletedSync(ctx context.Context, service models.ServiceName) (*models.SyncRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT CAST(id AS VARCHAR), service_name, sync_type, status, records_processed, records_failed, error_message, started_at, completed_at
		FROM sync_runs
		WHERE service_name = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`, string(service), string(models.SyncCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to query last sync: %w", err)
	}
	defer closeRows(rows)

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("last sync iteration failed: %w", err)
		}
		return nil, nil
	}

	var (
		run         models.SyncRun
		id          string
		serviceName string
		status      string
		errMessage  sql.NullString
		completedAt sql.NullTime
	)
	if err := rows.Scan(&id, &serviceName, &run.SyncType, &status,
		&run.RecordsProcessed, &run.RecordsFailed, &errMessage,
		&run.StartedAt, &completedAt); err != nil {
		return nil, fmt.Errorf("failed to scan last sync: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid sync run ID %q: %w", id, err)
	}
	run.ID = parsed
	run.ServiceName = models.ServiceName(serviceName)
	run.Status = models.SyncStatus(status)
	run.ErrorMessage = errMessage.String
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
