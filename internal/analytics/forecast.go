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

// seasonalityLag is the fixed autocorrelation lag, in samples, used for
// seasonality detection regardless of the requested forecast period.
const seasonalityLag = 12

// seasonalityThreshold is the minimum lag autocorrelation counted as a
// seasonal signal.
const seasonalityThreshold = 0.5

// trendStrengthThreshold decides between trend extrapolation and
// mean reversion in the forecast step.
const trendStrengthThreshold = 0.5

// forecastHistoricalAccuracy is a fixed placeholder. The model does not
// backtest against residuals; the field exists so clients can display a
// value in [0,1] consistently.
// TODO: replace with a residual-based backtest once enough sync history
// accumulates to hold out a validation window.
const forecastHistoricalAccuracy = 0.85

// ValidForecastPeriods lists the accepted forecast period labels.
var ValidForecastPeriods = map[string]bool{
	"day":     true,
	"week":    true,
	"month":   true,
	"quarter": true,
	"year":    true,
}

// Forecast projects future periods from the full stored history of a
// metric. Trend-dominant series extrapolate the average per-step growth;
// otherwise the forecast reverts to the historical mean. A detected
// seasonal cycle (lag-12 autocorrelation above 0.5) modulates each step
// by the matching seasonal factor. Confidence decays linearly per step
// with a floor of 0.5.
func (e *Engine) Forecast(ctx context.Context, req ForecastRequest) (*models.ForecastResult, error) {
	filter := baseFilter(req.ServiceName, req.MetricType, req.MetricName)

	values, err := e.store.RecentMetricValues(ctx, filter, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load forecast history: %w", err)
	}

	result := &models.ForecastResult{
		ServiceName:         req.ServiceName,
		MetricType:          req.MetricType,
		MetricName:          req.MetricName,
		ForecastPeriod:      req.ForecastPeriod,
		Forecasts:           []models.ForecastPoint{},
		HistoricalAccuracy:  0,
		SeasonalityDetected: false,
		TrendStrength:       0,
	}
	if len(values) == 0 {
		return result, nil
	}

	seasonal := detectSeasonality(values)
	trendStrength := math.Abs(indexCorrelation(values))

	meanValue := mean(values)
	n := len(values)
	growthRate := (values[n-1] - values[0]) / float64(n)

	for i := 1; i <= req.PeriodsAhead; i++ {
		var forecast float64
		if trendStrength > trendStrengthThreshold {
			forecast = values[n-1] + growthRate*float64(i)
		} else {
			forecast = meanValue
		}

		if seasonal && n >= seasonalityLag {
			seasonalFactor := 1.0
			if meanValue > 0 {
				seasonalFactor = values[i%seasonalityLag] / meanValue
			}
			forecast *= seasonalFactor
		}

		result.Forecasts = append(result.Forecasts, models.ForecastPoint{
			Period:     fmt.Sprintf("Period %d", i),
			Value:      round2(math.Max(0, forecast)),
			Confidence: round2(math.Max(0.5, 1-float64(i)*0.02)),
		})
	}

	result.HistoricalAccuracy = forecastHistoricalAccuracy
	result.SeasonalityDetected = seasonal
	result.TrendStrength = round2(trendStrength)
	return result, nil
}

// detectSeasonality reports whether the series shows a seasonal cycle at
// the fixed lag. Requires at least two full cycles of samples and a
// non-zero variance.
func detectSeasonality(values []float64) bool {
	if len(values) < seasonalityLag*2 {
		return false
	}
	if variance(values) == 0 {
		return false
	}
	return lagAutocorrelation(values, seasonalityLag) > seasonalityThreshold
}
