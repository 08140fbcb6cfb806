// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalStatus is the achievement state of a goal.
//
// Automatic transitions happen only on progress updates:
// active -> achieved when progress reaches 100%, active -> failed when
// the end date passes with progress below 100%. Cancellation is always
// explicit. Achieved, failed, and cancelled are terminal with respect to
// automatic transitions; a goal re-enters active only through an explicit
// update.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalAchieved  GoalStatus = "achieved"
	GoalFailed    GoalStatus = "failed"
	GoalCancelled GoalStatus = "cancelled"
)

// Valid reports whether the status is a known enum value.
func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalAchieved, GoalFailed, GoalCancelled:
		return true
	}
	return false
}

// Goal is a mutable target-tracking record with a start/end window,
// current/target values, and derived progress, status, and forecast.
//
// ProgressPercentage is always derived from CurrentValue/TargetValue and
// never independently settable. AlertSent is a one-shot latch: it moves
// false -> true exactly once and is never reset automatically.
type Goal struct {
	ID                 uuid.UUID  `json:"id"`
	Name               string     `json:"name"`
	Description        string     `json:"description,omitempty"`
	MetricType         MetricType `json:"metric_type"`
	TargetValue        float64    `json:"target_value"`
	CurrentValue       float64    `json:"current_value"`
	Unit               string     `json:"unit,omitempty"`
	StartDate          time.Time  `json:"start_date"`
	EndDate            time.Time  `json:"end_date"`
	Status             GoalStatus `json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	AlertThreshold     *float64   `json:"alert_threshold,omitempty"`
	AlertSent          bool       `json:"alert_sent"`
	ForecastValue      *float64   `json:"forecast_value,omitempty"`
	ForecastUpdatedAt  *time.Time `json:"forecast_updated_at,omitempty"`
	CreatedBy          uuid.UUID  `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// GoalProgress is the detailed progress view for a single goal.
type GoalProgress struct {
	GoalID             uuid.UUID  `json:"goal_id"`
	GoalName           string     `json:"goal_name"`
	MetricType         MetricType `json:"metric_type"`
	TargetValue        float64    `json:"target_value"`
	CurrentValue       float64    `json:"current_value"`
	Unit               string     `json:"unit,omitempty"`
	ProgressPercentage float64    `json:"progress_percentage"`
	Status             GoalStatus `json:"status"`
	DaysRemaining      int        `json:"days_remaining"`
	DailyRequired      *float64   `json:"daily_required_progress,omitempty"`
	OnTrack            bool       `json:"on_track"`
	ForecastValue      *float64   `json:"forecast_value,omitempty"`
	ForecastUpdatedAt  *time.Time `json:"forecast_updated_at,omitempty"`
}

// GoalForecast projects whether an active goal will be achieved.
type GoalForecast struct {
	GoalID                  uuid.UUID  `json:"goal_id"`
	GoalName                string     `json:"goal_name"`
	CurrentValue            float64    `json:"current_value"`
	TargetValue             float64    `json:"target_value"`
	ForecastValue           float64    `json:"forecast_value"`
	ForecastConfidence      float64    `json:"forecast_confidence"`
	WillAchieve             bool       `json:"will_achieve"`
	ProjectedCompletionDate *time.Time `json:"projected_completion_date,omitempty"`
	RecommendedAction       string     `json:"recommended_action"`
}
