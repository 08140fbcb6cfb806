// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package database

import (
	"strings"

	"github.com/pulseboard/pulseboard/internal/models"
)

// buildMetricConditions converts a MetricFilter into a parameterized SQL
// WHERE clause fragment and its arguments. All conditions combine with
// AND. The returned clause starts with " WHERE" or is empty when the
// filter matches everything.
//
// Date filtering is inclusive on both ends and operates on the date
// column, which carries a composite index with service_name and
// metric_type.
func buildMetricConditions(filter models.MetricFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.ServiceName != nil {
		conditions = append(conditions, "service_name = ?")
		args = append(args, string(*filter.ServiceName))
	}
	if filter.MetricType != nil {
		conditions = append(conditions, "metric_type = ?")
		args = append(args, string(*filter.MetricType))
	}
	if filter.MetricName != nil {
		conditions = append(conditions, "metric_name = ?")
		args = append(args, *filter.MetricName)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *filter.EndDate)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
