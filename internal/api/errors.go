// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// errors.go - Mapping of domain sentinel errors to HTTP responses.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pulseboard/pulseboard/internal/database"
	"github.com/pulseboard/pulseboard/internal/goals"
)

// respondDomainError translates sentinel errors from the storage and goal
// layers into the proper HTTP status and error code. Unknown errors become
// 500 INTERNAL_ERROR with the generic fallback message so internals never
// leak to clients.
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, database.ErrMetricNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Metric not found", nil)
	case errors.Is(err, database.ErrGoalNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Goal not found", nil)
	case errors.Is(err, database.ErrInvalidGroupBy):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"Invalid group_by field, allowed: "+strings.Join(database.AllowedGroupByFields(), ", "), nil)
	case errors.Is(err, goals.ErrInvalidTarget),
		errors.Is(err, goals.ErrInvalidDateRange),
		errors.Is(err, goals.ErrInvalidThreshold):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", fallback, err)
	}
}
