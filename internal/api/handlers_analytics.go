// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"net/http"
	"time"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/cache"
)

// This file contains the analytics endpoints. All four are POST with a
// JSON body because the request shapes carry typed parameters; results are
// cached by request shape with the configured TTL. Soft computation
// problems (not enough data, unknown calculation type) come back as 200
// responses carrying an interpretation, never as 5xx.

// AnalyticsPredictions handles POST /api/v1/analytics/predictions,
// fitting a linear trend and projecting it forward.
func (h *Handler) AnalyticsPredictions(w http.ResponseWriter, r *http.Request) {
	req := analytics.PredictionRequest{
		PredictionDays:  30,
		ConfidenceLevel: 0.95,
	}
	if !decodeRequest(w, r, &req) {
		return
	}

	h.cachedAnalytics(w, r, "predictions", req, func() (any, error) {
		return h.analytics.Predict(r.Context(), req)
	})
}

// AnalyticsForecasts handles POST /api/v1/analytics/forecasts,
// producing a seasonality-aware per-period forecast.
func (h *Handler) AnalyticsForecasts(w http.ResponseWriter, r *http.Request) {
	req := analytics.ForecastRequest{
		ForecastPeriod: "month",
		PeriodsAhead:   3,
	}
	if !decodeRequest(w, r, &req) {
		return
	}

	h.cachedAnalytics(w, r, "forecasts", req, func() (any, error) {
		return h.analytics.Forecast(r.Context(), req)
	})
}

// AnalyticsComparisons handles POST /api/v1/analytics/comparisons,
// comparing a metric across services or across time periods.
func (h *Handler) AnalyticsComparisons(w http.ResponseWriter, r *http.Request) {
	var req analytics.ComparisonRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	h.cachedAnalytics(w, r, "comparisons", req, func() (any, error) {
		return h.analytics.Compare(r.Context(), req)
	})
}

// AnalyticsCalculate handles POST /api/v1/analytics/calculate, running a
// named statistical calculation (correlation, regression, anomaly
// detection) over the filtered series.
func (h *Handler) AnalyticsCalculate(w http.ResponseWriter, r *http.Request) {
	var req analytics.CalculationRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	h.cachedAnalytics(w, r, "calculate", req, func() (any, error) {
		return h.analytics.Calculate(r.Context(), req)
	})
}

// cachedAnalytics serves a computation from the TTL cache when possible,
// computing and caching on miss. The cache key is derived from the
// operation name and the full request shape.
func (h *Handler) cachedAnalytics(w http.ResponseWriter, r *http.Request, operation string, req any, compute func() (any, error)) {
	start := time.Now()

	var key string
	if h.cache != nil {
		key = cache.GenerateKey(operation, req)
		if cached, ok := h.cache.Get(key); ok {
			resp := successResponse(cached, start)
			resp.Metadata.Cached = true
			respondJSON(w, http.StatusOK, resp)
			return
		}
	}

	result, err := compute()
	if err != nil {
		respondDomainError(w, err, "Analytics computation failed")
		return
	}

	if h.cache != nil {
		h.cache.Set(key, result)
	}

	respondJSON(w, http.StatusOK, successResponse(result, start))
}
