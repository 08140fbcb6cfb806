// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/pulseboard/pulseboard/internal/models"
)

// Trend classification thresholds on the raw OLS slope. The thresholds
// are unit-scale-dependent: a metric with a naturally large magnitude
// classifies as increasing/decreasing more readily than a small one.
// Known limitation, kept for behavioral compatibility with existing
// clients.
const (
	trendSlopeThreshold = 0.01
)

// Predict fits an ordinary least-squares line over the most recent
// history window and extrapolates it forward. With no matching metrics
// it returns an empty prediction set with trend "stable" and accuracy 0.
func (e *Engine) Predict(ctx context.Context, req PredictionRequest) (*models.PredictionResult, error) {
	filter := baseFilter(req.ServiceName, req.MetricType, req.MetricName)
	filter.Limit = e.historyWindow

	// Newest first; reversed below into chronological order.
	history, err := e.store.ListMetrics(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load prediction history: %w", err)
	}

	result := &models.PredictionResult{
		ServiceName:     req.ServiceName,
		MetricType:      req.MetricType,
		MetricName:      req.MetricName,
		Predictions:     []models.PredictionPoint{},
		ConfidenceLevel: req.ConfidenceLevel,
		ModelAccuracy:   0,
		Trend:           models.TrendStable,
	}
	if len(history) == 0 {
		return result, nil
	}

	lastDate := history[0].Timestamp
	values := make([]float64, len(history))
	for i, m := range history {
		values[len(history)-1-i] = m.Value
	}

	slope, intercept := linearFit(values)
	switch {
	case slope > trendSlopeThreshold:
		result.Trend = models.TrendIncreasing
	case slope < -trendSlopeThreshold:
		result.Trend = models.TrendDecreasing
	}

	n := float64(len(values))
	margin := stdDev(values) * (1 - req.ConfidenceLevel)

	for i := 1; i <= req.PredictionDays; i++ {
		predicted := slope*(n+float64(i)) + intercept
		value := round2(math.Max(0, predicted))
		result.Predictions = append(result.Predictions, models.PredictionPoint{
			Date:       lastDate.AddDate(0, 0, i).Format("2006-01-02"),
			Value:      value,
			LowerBound: round2(math.Max(0, value-margin)),
			UpperBound: round2(value + margin),
		})
	}

	result.ModelAccuracy = round2(modelAccuracy(values, slope, intercept))
	return result, nil
}

// modelAccuracy scores the fit as max(0, 1 - RMSE/mean), 0 when the
// history mean is not positive.
func modelAccuracy(values []float64, slope, intercept float64) float64 {
	m := mean(values)
	if m <= 0 {
		return 0
	}
	var sumSq float64
	for i, v := range values {
		residual := v - (slope*float64(i) + intercept)
		sumSq += residual * residual
	}
	rmse := math.Sqrt(sumSq / float64(len(values)))
	return math.Max(0, 1-rmse/m)
}
