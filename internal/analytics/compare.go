// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// Comparison types accepted by Compare.
const (
	CompareByService    = "service"
	CompareByTimePeriod = "time_period"
)

// timePeriodWindows is the number of consecutive windows a time-period
// comparison walks backward from the requested range.
const timePeriodWindows = 3

// Compare performs a comparative analysis of summed metric values,
// either across every known service or across consecutive time windows.
// Services with no matching metrics still produce a zero-valued point.
func (e *Engine) Compare(ctx context.Context, req ComparisonRequest) (*models.ComparisonResult, error) {
	result := &models.ComparisonResult{
		MetricType:     req.MetricType,
		MetricName:     req.MetricName,
		ComparisonType: req.ComparisonType,
		Comparisons:    []models.ComparisonPoint{},
		Insights:       []string{},
	}

	switch req.ComparisonType {
	case CompareByService:
		if err := e.compareServices(ctx, req, result); err != nil {
			return nil, err
		}
	case CompareByTimePeriod:
		if err := e.compareTimePeriods(ctx, req, result); err != nil {
			return nil, err
		}
	}

	buildInsights(result)
	return result, nil
}

// compareServices sums matching metric values per known service.
func (e *Engine) compareServices(ctx context.Context, req ComparisonRequest, result *models.ComparisonResult) error {
	for _, service := range models.AllServiceNames {
		filter := baseFilter(service, req.MetricType, req.MetricName)
		filter.StartDate = req.StartDate
		filter.EndDate = req.EndDate

		total, err := e.store.SumMetricValues(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to sum metrics for %s: %w", service, err)
		}
		result.Comparisons = append(result.Comparisons, models.ComparisonPoint{
			Label: string(service),
			Value: total,
		})
	}
	return nil
}

// compareTimePeriods sums metric values over consecutive equal-length
// windows walking backward from the requested start date. The first
// window keeps the requested end date so it covers the original range.
// Without both start and end dates no windows are produced.
func (e *Engine) compareTimePeriods(ctx context.Context, req ComparisonRequest, result *models.ComparisonResult) error {
	if req.StartDate == nil || req.EndDate == nil {
		return nil
	}

	periodLength := int(req.EndDate.Sub(*req.StartDate).Hours() / 24)

	for i := 0; i < timePeriodWindows; i++ {
		periodStart := req.StartDate.AddDate(0, 0, -periodLength*(i+1))
		periodEnd := *req.EndDate
		if i > 0 {
			periodEnd = req.StartDate.AddDate(0, 0, -periodLength*i)
		}

		filter := models.MetricFilter{MetricType: &req.MetricType}
		if req.MetricName != "" {
			name := req.MetricName
			filter.MetricName = &name
		}
		filter.StartDate = &periodStart
		filter.EndDate = &periodEnd

		total, err := e.store.SumMetricValues(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to sum metrics for period %d: %w", i+1, err)
		}
		result.Comparisons = append(result.Comparisons, models.ComparisonPoint{
			Label: fmt.Sprintf("Period %d: %s to %s", i+1, formatDate(periodStart), formatDate(periodEnd)),
			Value: total,
		})
	}
	return nil
}

// buildInsights derives max/min/avg insights and best/worst performers
// from the produced points. An empty comparison set yields a single
// informational insight and no performers.
func buildInsights(result *models.ComparisonResult) {
	if len(result.Comparisons) == 0 {
		result.Insights = append(result.Insights, "No data available for comparison")
		return
	}

	maxValue := result.Comparisons[0].Value
	minValue := result.Comparisons[0].Value
	sum := 0.0
	for _, c := range result.Comparisons {
		if c.Value > maxValue {
			maxValue = c.Value
		}
		if c.Value < minValue {
			minValue = c.Value
		}
		sum += c.Value
	}
	avgValue := sum / float64(len(result.Comparisons))

	// First point achieving the extreme wins, matching iteration order.
	for _, c := range result.Comparisons {
		if c.Value == maxValue {
			result.BestPerformer = c.Label
			break
		}
	}
	for _, c := range result.Comparisons {
		if c.Value == minValue {
			result.WorstPerformer = c.Label
			break
		}
	}

	result.Insights = append(result.Insights,
		fmt.Sprintf("Highest value: %.2f (%s)", maxValue, result.BestPerformer),
		fmt.Sprintf("Lowest value: %.2f (%s)", minValue, result.WorstPerformer),
		fmt.Sprintf("Average value: %.2f", avgValue),
	)
	if maxValue > 0 {
		variancePct := (maxValue - minValue) / maxValue * 100
		result.Insights = append(result.Insights, fmt.Sprintf("Variance: %.1f%%", variancePct))
	}
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
