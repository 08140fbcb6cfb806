// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package database

import "errors"

var (
	// ErrMetricNotFound is returned when a metric lookup by ID matches nothing.
	ErrMetricNotFound = errors.New("metric not found")

	// ErrGoalNotFound is returned when a goal lookup by ID matches nothing.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrInvalidGroupBy is returned when an aggregation request names a
	// group-by field outside the allowed set.
	ErrInvalidGroupBy = errors.New("invalid group_by field")
)
