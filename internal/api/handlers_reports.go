// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AggregationReport handles GET /api/v1/reports/aggregations.xlsx. It
// accepts the same filters as the aggregate endpoint and streams the
// workbook as an attachment.
func (h *Handler) AggregationReport(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseMetricFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = "service_name"
	}

	results, err := h.store.AggregateMetrics(r.Context(), filter, groupBy)
	if err != nil {
		respondDomainError(w, err, "Failed to aggregate metrics")
		return
	}

	workbook, filename, err := h.exporter.AggregationWorkbook(results, groupBy, time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report", err)
		return
	}

	writeAttachment(w, workbook, filename)
}

// GoalsReport handles GET /api/v1/reports/goals.xlsx, exporting the goal
// portfolio with an optional status filter.
func (h *Handler) GoalsReport(w http.ResponseWriter, r *http.Request) {
	var status *models.GoalStatus
	if v := r.URL.Query().Get("status"); v != "" {
		s := models.GoalStatus(v)
		if !s.Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("invalid status: %q", v), nil)
			return
		}
		status = &s
	}

	list, err := h.goals.List(r.Context(), status, nil)
	if err != nil {
		respondDomainError(w, err, "Failed to list goals")
		return
	}

	workbook, filename, err := h.exporter.GoalsWorkbook(list, time.Now())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build report", err)
		return
	}

	writeAttachment(w, workbook, filename)
}

func writeAttachment(w http.ResponseWriter, data []byte, filename string) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Str("filename", filename).Msg("Failed to write report response")
	}
}
