// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package models

// Trend labels for slope classification.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// PredictionPoint is one projected value with confidence bounds.
// LowerBound <= Value <= UpperBound always holds; the lower bound and the
// value itself are floored at zero.
type PredictionPoint struct {
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// PredictionResult is the response of a linear-trend prediction.
type PredictionResult struct {
	ServiceName     ServiceName       `json:"service_name"`
	MetricType      MetricType        `json:"metric_type"`
	MetricName      string            `json:"metric_name,omitempty"`
	Predictions     []PredictionPoint `json:"predictions"`
	ConfidenceLevel float64           `json:"confidence_level"`
	ModelAccuracy   float64           `json:"model_accuracy"`
	Trend           string            `json:"trend"`
}

// ForecastPoint is one projected period with decaying confidence.
type ForecastPoint struct {
	Period     string  `json:"period"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// ForecastResult is the response of a seasonality-aware forecast.
type ForecastResult struct {
	ServiceName         ServiceName     `json:"service_name"`
	MetricType          MetricType      `json:"metric_type"`
	MetricName          string          `json:"metric_name,omitempty"`
	ForecastPeriod      string          `json:"forecast_period"`
	Forecasts           []ForecastPoint `json:"forecasts"`
	HistoricalAccuracy  float64         `json:"historical_accuracy"`
	SeasonalityDetected bool            `json:"seasonality_detected"`
	TrendStrength       float64         `json:"trend_strength"`
}

// ComparisonPoint is one labeled comparison data point.
type ComparisonPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ComparisonResult is the response of a comparative analysis across
// services or successive time windows.
type ComparisonResult struct {
	MetricType     MetricType        `json:"metric_type"`
	MetricName     string            `json:"metric_name,omitempty"`
	ComparisonType string            `json:"comparison_type"`
	Comparisons    []ComparisonPoint `json:"comparisons"`
	Insights       []string          `json:"insights"`
	BestPerformer  string            `json:"best_performer,omitempty"`
	WorstPerformer string            `json:"worst_performer,omitempty"`
}

// CalculationResult is the response of a custom statistical calculation.
// Insufficient-data and unknown-type conditions are reported through an
// "error" key inside Results plus an explanatory Interpretation; they are
// never surfaced as transport-level failures.
type CalculationResult struct {
	CalculationType string         `json:"calculation_type"`
	MetricType      MetricType     `json:"metric_type"`
	MetricName      string         `json:"metric_name,omitempty"`
	Results         map[string]any `json:"results"`
	Interpretation  string         `json:"interpretation"`
}
