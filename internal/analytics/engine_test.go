// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package analytics

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/models"
)

// fakeStore is an in-memory MetricSource applying the same filter
// semantics as the real store.
type fakeStore struct {
	metrics []models.Metric
}

func (s *fakeStore) matching(filter models.MetricFilter) []models.Metric {
	matched := make([]models.Metric, 0)
	for _, m := range s.metrics {
		if filter.ServiceName != nil && m.ServiceName != *filter.ServiceName {
			continue
		}
		if filter.MetricType != nil && m.MetricType != *filter.MetricType {
			continue
		}
		if filter.MetricName != nil && m.MetricName != *filter.MetricName {
			continue
		}
		if filter.StartDate != nil && m.Date.Before(*filter.StartDate) {
			continue
		}
		if filter.EndDate != nil && m.Date.After(*filter.EndDate) {
			continue
		}
		matched = append(matched, m)
	}
	return matched
}

func (s *fakeStore) ListMetrics(_ context.Context, filter models.MetricFilter) ([]models.Metric, error) {
	matched := s.matching(filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (s *fakeStore) RecentMetricValues(_ context.Context, filter models.MetricFilter, limit int) ([]float64, error) {
	matched := s.matching(filter)
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	values := make([]float64, len(matched))
	for i, m := range matched {
		values[i] = m.Value
	}
	return values, nil
}

func (s *fakeStore) SumMetricValues(_ context.Context, filter models.MetricFilter) (float64, error) {
	sum := 0.0
	for _, m := range s.matching(filter) {
		sum += m.Value
	}
	return sum, nil
}

// seriesStore builds a fake store holding one metric per value, spaced
// one day apart ending at the given date.
func seriesStore(service models.ServiceName, metricType models.MetricType, name string, end time.Time, values ...float64) *fakeStore {
	store := &fakeStore{}
	for i, v := range values {
		ts := end.AddDate(0, 0, i-len(values)+1)
		store.metrics = append(store.metrics, models.Metric{
			ID:          uuid.New(),
			ServiceName: service,
			MetricType:  metricType,
			MetricName:  name,
			Value:       v,
			Timestamp:   ts,
			Date:        time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
		})
	}
	return store
}

func almostEqual(a, b float64) bool {
	const epsilon = 1e-9
	diff := a - b
	return diff < epsilon && diff > -epsilon
}
