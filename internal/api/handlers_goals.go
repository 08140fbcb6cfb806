// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/pulseboard/pulseboard/internal/goals"
	"github.com/pulseboard/pulseboard/internal/models"
)

// This file contains the goal tracking endpoints: CRUD, progress updates
// with threshold alerting, and portfolio-wide forecasts.

// CreateGoal handles POST /api/v1/goals.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goals.CreateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !req.MetricType.Valid() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown metric_type: %q", req.MetricType), nil)
		return
	}

	start := time.Now()
	goal, err := h.goals.Create(r.Context(), req)
	if err != nil {
		respondDomainError(w, err, "Failed to create goal")
		return
	}

	respondJSON(w, http.StatusCreated, successResponse(goal, start))
}

// ListGoals handles GET /api/v1/goals with optional status and
// metric_type filters.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
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

	var metricType *models.MetricType
	if v := r.URL.Query().Get("metric_type"); v != "" {
		m := models.MetricType(v)
		if !m.Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("invalid metric_type: %q", v), nil)
			return
		}
		metricType = &m
	}

	start := time.Now()
	list, err := h.goals.List(r.Context(), status, metricType)
	if err != nil {
		respondDomainError(w, err, "Failed to list goals")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"goals":       list,
		"total_count": len(list),
	}, start))
}

// GetGoal handles GET /api/v1/goals/{id}.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	goal, err := h.goals.Get(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "Failed to retrieve goal")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(goal, start))
}

// UpdateGoal handles PUT /api/v1/goals/{id} with a partial update body.
func (h *Handler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req goals.UpdateRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("invalid status: %q", *req.Status), nil)
		return
	}

	start := time.Now()
	goal, err := h.goals.Update(r.Context(), id, req)
	if err != nil {
		respondDomainError(w, err, "Failed to update goal")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(goal, start))
}

// DeleteGoal handles DELETE /api/v1/goals/{id}.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	if err := h.goals.Delete(r.Context(), id); err != nil {
		respondDomainError(w, err, "Failed to delete goal")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{"deleted": id}, start))
}

// progressUpdateRequest carries a goal's new cumulative current value.
type progressUpdateRequest struct {
	CurrentValue float64 `json:"current_value" validate:"gte=0"`
}

// UpdateGoalProgress handles POST /api/v1/goals/{id}/progress. The update
// recomputes progress and status, refreshes the forecast, and fires the
// threshold alert at most once per goal.
func (h *Handler) UpdateGoalProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	var req progressUpdateRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	start := time.Now()
	goal, err := h.goals.UpdateProgress(r.Context(), id, req.CurrentValue)
	if err != nil {
		respondDomainError(w, err, "Failed to update goal progress")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(goal, start))
}

// GetGoalProgress handles GET /api/v1/goals/{id}/progress, returning the
// derived progress view with days remaining and required daily pace.
func (h *Handler) GetGoalProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	progress, err := h.goals.Progress(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "Failed to compute goal progress")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(progress, start))
}

// GoalForecasts handles GET /api/v1/goals/forecasts/all, returning
// forecasts with recommendations for every active goal.
func (h *Handler) GoalForecasts(w http.ResponseWriter, r *http.Request) {
	var metricType *models.MetricType
	if v := r.URL.Query().Get("metric_type"); v != "" {
		m := models.MetricType(v)
		if !m.Valid() {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("invalid metric_type: %q", v), nil)
			return
		}
		metricType = &m
	}

	start := time.Now()
	forecasts, err := h.goals.Forecasts(r.Context(), metricType)
	if err != nil {
		respondDomainError(w, err, "Failed to compute goal forecasts")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"forecasts":   forecasts,
		"total_count": len(forecasts),
	}, start))
}
