// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

/*
schema.go - Database Schema Management

This file manages the DuckDB database schema including table creation
and index management.

Tables:
  - metrics: Append-only numeric observations synced from upstream services
  - goals: Mutable target-tracking records with derived progress and status
  - sync_runs: One row per synchronization attempt for observability

Schema Strategy:
All columns are defined in the initial CREATE TABLE statement. This keeps
a single source of truth for the complete schema and makes startup fast
(no migrations to run).

Index Strategy:
Indexes follow the dominant query patterns: aggregation filters by
(service_name, metric_type, date), name lookups by (metric_name, date),
and chronological reads by timestamp.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS metrics (
			id UUID PRIMARY KEY,
			service_name TEXT NOT NULL,
			metric_type TEXT NOT NULL,
			metric_name TEXT NOT NULL,
			value DOUBLE NOT NULL,
			unit TEXT,
			dimensions TEXT,
			timestamp TIMESTAMP NOT NULL,
			date DATE NOT NULL,
			meta TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS goals (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			metric_type TEXT NOT NULL,
			target_value DOUBLE NOT NULL,
			current_value DOUBLE NOT NULL DEFAULT 0,
			unit TEXT,
			start_date TIMESTAMP NOT NULL,
			end_date TIMESTAMP NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			progress_percentage DOUBLE NOT NULL DEFAULT 0,
			alert_threshold DOUBLE,
			alert_sent BOOLEAN NOT NULL DEFAULT FALSE,
			forecast_value DOUBLE,
			forecast_updated_at TIMESTAMP,
			created_by UUID,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sync_runs (
			id UUID PRIMARY KEY,
			service_name TEXT NOT NULL,
			sync_type TEXT NOT NULL,
			status TEXT NOT NULL,
			records_processed INTEGER NOT NULL DEFAULT 0,
			records_failed INTEGER NOT NULL DEFAULT 0,
			error_message TEXT,
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for common query patterns
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_metrics_service_type_date ON metrics (service_name, metric_type, date)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_name_date ON metrics (metric_name, date)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_timestamp ON metrics (timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_status ON goals (status)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_metric_type ON goals (metric_type)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_runs_service ON sync_runs (service_name, started_at)`,
	}

	for _, index := range indexes {
		if _, err := db.conn.ExecContext(ctx, index); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", index, err)
		}
	}

	return nil
}
