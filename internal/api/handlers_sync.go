// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// This file contains the sync control endpoints. Upstream failures during
// a triggered run are recorded per service in the results and in
// sync_runs; the trigger endpoint itself only fails when the sync
// subsystem is unavailable or the request is malformed.

// triggerSyncRequest optionally narrows a manual sync to one service.
type triggerSyncRequest struct {
	ServiceName string `json:"service_name,omitempty"`
}

// TriggerSync handles POST /api/v1/sync/trigger. An empty body (or empty
// service_name) syncs every configured service.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Sync is not enabled", nil)
		return
	}

	var req triggerSyncRequest
	if r.ContentLength != 0 {
		if !decodeRequest(w, r, &req) {
			return
		}
	}

	var service *models.ServiceName
	if req.ServiceName != "" {
		s := models.ServiceName(req.ServiceName)
		if !s.Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("Unknown service_name: %q", req.ServiceName), nil)
			return
		}
		service = &s
	}

	start := time.Now()
	results, err := h.sync.TriggerSync(r.Context(), service)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), err)
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"results": results,
	}, start))
}

// SyncRuns handles GET /api/v1/sync/runs, returning recent sync run
// history newest first.
func (h *Handler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	defaultSize, maxSize := h.pageSizeConfig()
	limit := getIntParam(r, "limit", defaultSize)
	if limit < 1 || limit > maxSize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("limit must be between 1 and %d", maxSize), nil)
		return
	}

	start := time.Now()
	runs, err := h.store.ListSyncRuns(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err, "Failed to list sync runs")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"runs":        runs,
		"total_count": len(runs),
	}, start))
}
