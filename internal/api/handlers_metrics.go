// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/models"
)

// This file contains the metric ingestion and query endpoints:
//   - CreateMetric: single metric ingestion
//   - ListMetrics: filtered listing with offset pagination
//   - GetMetric / DeleteMetric: lookup and removal by ID
//   - AggregateMetrics: group-by summary statistics
//   - MetricTimeSeries: daily time buckets for charting

// createMetricRequest is the ingestion payload. Value intentionally has no
// validation tag: zero is a legitimate metric value.
type createMetricRequest struct {
	ServiceName models.ServiceName `json:"service_name" validate:"required"`
	MetricType  models.MetricType  `json:"metric_type" validate:"required"`
	MetricName  string             `json:"metric_name" validate:"required,min=1,max=255"`
	Value       float64            `json:"value"`
	Unit        string             `json:"unit,omitempty"`
	Dimensions  map[string]any     `json:"dimensions,omitempty"`
	Timestamp   *time.Time         `json:"timestamp,omitempty"`
	Meta        map[string]any     `json:"meta,omitempty"`
}

// CreateMetric handles POST /api/v1/metrics.
//
// Response:
//   - 201: Metric stored
//   - 400: Invalid body or unknown service/metric type
//   - 500: Storage error
func (h *Handler) CreateMetric(w http.ResponseWriter, r *http.Request) {
	var req createMetricRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if !req.ServiceName.Valid() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown service_name: %q", req.ServiceName), nil)
		return
	}
	if !req.MetricType.Valid() {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Unknown metric_type: %q", req.MetricType), nil)
		return
	}

	now := time.Now().UTC()
	timestamp := now
	if req.Timestamp != nil {
		timestamp = req.Timestamp.UTC()
	}

	metric := &models.Metric{
		ID:          uuid.New(),
		ServiceName: req.ServiceName,
		MetricType:  req.MetricType,
		MetricName:  req.MetricName,
		Value:       req.Value,
		Unit:        req.Unit,
		Dimensions:  req.Dimensions,
		Timestamp:   timestamp,
		Date:        timestamp.Truncate(24 * time.Hour),
		Meta:        req.Meta,
	}

	start := time.Now()
	if err := h.store.InsertMetric(r.Context(), metric); err != nil {
		respondDomainError(w, err, "Failed to store metric")
		return
	}

	respondJSON(w, http.StatusCreated, successResponse(metric, start))
}

// ListMetrics handles GET /api/v1/metrics with optional filters:
// service_name, metric_type, metric_name, start_date, end_date, plus
// limit/offset pagination.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseMetricFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	defaultSize, maxSize := h.pageSizeConfig()
	filter.Limit = getIntParam(r, "limit", defaultSize)
	if filter.Limit < 1 || filter.Limit > maxSize {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("limit must be between 1 and %d", maxSize), nil)
		return
	}
	filter.Offset = getIntParam(r, "offset", 0)
	if filter.Offset < 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "offset must not be negative", nil)
		return
	}

	start := time.Now()
	metrics, err := h.store.ListMetrics(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err, "Failed to list metrics")
		return
	}
	total, err := h.store.CountMetrics(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err, "Failed to count metrics")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"metrics":     metrics,
		"total_count": total,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	}, start))
}

// GetMetric handles GET /api/v1/metrics/{id}.
func (h *Handler) GetMetric(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	metric, err := h.store.GetMetric(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "Failed to retrieve metric")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(metric, start))
}

// DeleteMetric handles DELETE /api/v1/metrics/{id}.
func (h *Handler) DeleteMetric(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	start := time.Now()
	if err := h.store.DeleteMetric(r.Context(), id); err != nil {
		respondDomainError(w, err, "Failed to delete metric")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{"deleted": id}, start))
}

// AggregateMetrics handles GET /api/v1/metrics/aggregate. The group_by
// parameter selects the grouping column and defaults to service_name.
func (h *Handler) AggregateMetrics(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseMetricFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	groupBy := r.URL.Query().Get("group_by")
	if groupBy == "" {
		groupBy = "service_name"
	}

	start := time.Now()
	results, err := h.store.AggregateMetrics(r.Context(), filter, groupBy)
	if err != nil {
		respondDomainError(w, err, "Failed to aggregate metrics")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"group_by":     groupBy,
		"aggregations": results,
	}, start))
}

// MetricTimeSeries handles GET /api/v1/metrics/timeseries, returning
// daily buckets for the filtered metric set.
func (h *Handler) MetricTimeSeries(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseMetricFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	start := time.Now()
	points, err := h.store.MetricTimeSeries(r.Context(), filter)
	if err != nil {
		respondDomainError(w, err, "Failed to build time series")
		return
	}

	respondJSON(w, http.StatusOK, successResponse(map[string]any{
		"points": points,
	}, start))
}

// parseMetricFilter extracts the common metric query filters. Enum values
// are validated eagerly so typos surface as 400s instead of empty results.
func (h *Handler) parseMetricFilter(r *http.Request) (models.MetricFilter, error) {
	var filter models.MetricFilter

	if v := r.URL.Query().Get("service_name"); v != "" {
		service := models.ServiceName(v)
		if !service.Valid() {
			return filter, fmt.Errorf("invalid service_name: %q", v)
		}
		filter.ServiceName = &service
	}
	if v := r.URL.Query().Get("metric_type"); v != "" {
		metricType := models.MetricType(v)
		if !metricType.Valid() {
			return filter, fmt.Errorf("invalid metric_type: %q", v)
		}
		filter.MetricType = &metricType
	}
	if v := r.URL.Query().Get("metric_name"); v != "" {
		filter.MetricName = &v
	}

	startDate, err := parseTimeParam(r, "start_date")
	if err != nil {
		return filter, err
	}
	filter.StartDate = startDate

	endDate, err := parseTimeParam(r, "end_date")
	if err != nil {
		return filter, err
	}
	filter.EndDate = endDate

	if filter.StartDate != nil && filter.EndDate != nil && filter.EndDate.Before(*filter.StartDate) {
		return filter, fmt.Errorf("end_date must not precede start_date")
	}

	return filter, nil
}

// parseIDParam extracts and parses a UUID path parameter. On failure it
// writes the 400 response and returns false.
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("Invalid id: %q", raw), nil)
		return uuid.Nil, false
	}
	return id, true
}
