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

// Calculation types accepted by Calculate.
const (
	CalcCorrelation      = "correlation"
	CalcRegression       = "regression"
	CalcAnomalyDetection = "anomaly_detection"
)

// anomalyZThreshold flags a point as anomalous at two standard
// deviations. The comparison is inclusive: a point sitting exactly at
// the threshold still counts as an anomaly.
const anomalyZThreshold = 2.0

// Calculate runs a custom statistical calculation over the filtered
// metric values. Insufficient data and unknown calculation types are
// soft failures: they populate an "error" key in Results and an
// explanatory interpretation instead of returning a Go error.
func (e *Engine) Calculate(ctx context.Context, req CalculationRequest) (*models.CalculationResult, error) {
	filter := models.MetricFilter{MetricType: &req.MetricType}
	if req.MetricName != "" {
		name := req.MetricName
		filter.MetricName = &name
	}
	filter.StartDate = req.StartDate
	filter.EndDate = req.EndDate

	values, err := e.store.RecentMetricValues(ctx, filter, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load calculation data: %w", err)
	}

	result := &models.CalculationResult{
		CalculationType: req.CalculationType,
		MetricType:      req.MetricType,
		MetricName:      req.MetricName,
		Results:         map[string]any{},
	}

	switch req.CalculationType {
	case CalcCorrelation:
		calculateCorrelation(values, result)
	case CalcRegression:
		calculateRegression(values, result)
	case CalcAnomalyDetection:
		calculateAnomalies(values, result)
	default:
		result.Results["error"] = "Unknown calculation type"
		result.Interpretation = "Calculation type not supported."
	}

	return result, nil
}

// calculateCorrelation measures how strongly the metric tracks its
// sequence index. Strength buckets: |r|>0.7 strong, |r|>0.4 moderate,
// else weak.
func calculateCorrelation(values []float64, result *models.CalculationResult) {
	if len(values) < 2 {
		result.Results["error"] = "Insufficient data for correlation analysis"
		result.Interpretation = "Not enough data points for correlation analysis."
		return
	}

	correlation := indexCorrelation(values)
	strength := "weak"
	switch {
	case math.Abs(correlation) > 0.7:
		strength = "strong"
	case math.Abs(correlation) > 0.4:
		strength = "moderate"
	}

	result.Results["correlation_coefficient"] = round3(correlation)
	result.Results["correlation_strength"] = strength
	result.Interpretation = fmt.Sprintf("The metric shows a %s correlation with time.", strength)
}

// calculateRegression fits an OLS line and reports it as a
// human-readable equation.
func calculateRegression(values []float64, result *models.CalculationResult) {
	if len(values) < 2 {
		result.Results["error"] = "Insufficient data for regression analysis"
		result.Interpretation = "Not enough data points for regression analysis."
		return
	}

	slope, intercept := linearFit(values)
	slope = round3(slope)
	intercept = round3(intercept)

	equation := fmt.Sprintf("y = %sx + %s", formatNumber(slope), formatNumber(intercept))
	result.Results["slope"] = slope
	result.Results["intercept"] = intercept
	result.Results["equation"] = equation
	result.Interpretation = fmt.Sprintf("Linear trend: %s", equation)
}

// calculateAnomalies flags points whose z-score magnitude exceeds the
// threshold. Zero standard deviation maps every z-score to 0, so a flat
// series never flags anything.
func calculateAnomalies(values []float64, result *models.CalculationResult) {
	if len(values) <= 2 {
		result.Results["error"] = "Insufficient data for anomaly detection"
		result.Interpretation = "Not enough data points for anomaly detection."
		return
	}

	m := mean(values)
	std := stdDev(values)

	anomalies := make([]int, 0)
	for i, v := range values {
		z := 0.0
		if std > 0 {
			z = (v - m) / std
		}
		if math.Abs(z) >= anomalyZThreshold {
			anomalies = append(anomalies, i)
		}
	}

	percentage := round2(float64(len(anomalies)) / float64(len(values)) * 100)
	result.Results["anomaly_count"] = len(anomalies)
	result.Results["anomaly_percentage"] = percentage
	result.Results["anomaly_indices"] = anomalies
	result.Interpretation = fmt.Sprintf("Detected %d anomalies (%s%% of data points)", len(anomalies), formatNumber(percentage))
}
