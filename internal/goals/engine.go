// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package goals tracks KPI goals through their lifecycle: progress
// updates drive a small state machine (active, achieved, failed,
// cancelled), fire a one-shot alert when a threshold is first crossed,
// and recompute a linear-rate forecast of the final value.
package goals

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/notify"
)

// Validation errors returned by Create and Update.
var (
	ErrInvalidTarget    = errors.New("target value must be positive")
	ErrInvalidDateRange = errors.New("end date must be after start date")
	ErrInvalidThreshold = errors.New("alert threshold must be between 0 and 100")
)

// Store is the slice of the database the engine needs.
type Store interface {
	CreateGoal(ctx context.Context, goal *models.Goal) error
	GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error)
	ListGoals(ctx context.Context, status *models.GoalStatus, metricType *models.MetricType) ([]models.Goal, error)
	UpdateGoal(ctx context.Context, goal *models.Goal) error
	DeleteGoal(ctx context.Context, id uuid.UUID) error
}

// Engine manages goal lifecycle and derived views.
type Engine struct {
	store    Store
	notifier notify.Notifier

	// Per-goal write locks. Two concurrent progress updates to one goal
	// must not interleave their read-modify-write cycles.
	locks sync.Map

	now func() time.Time
}

// NewEngine creates a goal engine. A nil notifier falls back to the log
// channel.
func NewEngine(store Store, notifier notify.Notifier) *Engine {
	if notifier == nil {
		notifier = notify.NewLogNotifier()
	}
	return &Engine{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// SetClock overrides the engine clock. Intended for tests.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// lockGoal acquires the per-goal mutex and returns its unlock func.
func (e *Engine) lockGoal(id uuid.UUID) func() {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

// CreateRequest carries the fields of a new goal.
type CreateRequest struct {
	Name           string            `json:"name" validate:"required,min=1,max=255"`
	Description    string            `json:"description,omitempty"`
	MetricType     models.MetricType `json:"metric_type" validate:"required"`
	TargetValue    float64           `json:"target_value" validate:"required,gt=0"`
	CurrentValue   float64           `json:"current_value"`
	Unit           string            `json:"unit,omitempty"`
	StartDate      time.Time         `json:"start_date" validate:"required"`
	EndDate        time.Time         `json:"end_date" validate:"required"`
	AlertThreshold *float64          `json:"alert_threshold,omitempty"`
	CreatedBy      uuid.UUID         `json:"created_by,omitempty"`
}

// UpdateRequest carries a partial goal update. Nil fields are left
// unchanged. Status changes here are the explicit external path that can
// re-activate or cancel a goal.
type UpdateRequest struct {
	Name           *string            `json:"name,omitempty"`
	Description    *string            `json:"description,omitempty"`
	TargetValue    *float64           `json:"target_value,omitempty"`
	Unit           *string            `json:"unit,omitempty"`
	StartDate      *time.Time         `json:"start_date,omitempty"`
	EndDate        *time.Time         `json:"end_date,omitempty"`
	Status         *models.GoalStatus `json:"status,omitempty"`
	AlertThreshold *float64           `json:"alert_threshold,omitempty"`
}

// Create validates and stores a new goal in the active state.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (*models.Goal, error) {
	if req.TargetValue <= 0 {
		return nil, ErrInvalidTarget
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if req.AlertThreshold != nil && (*req.AlertThreshold <= 0 || *req.AlertThreshold > 100) {
		return nil, ErrInvalidThreshold
	}

	goal := &models.Goal{
		Name:               req.Name,
		Description:        req.Description,
		MetricType:         req.MetricType,
		TargetValue:        req.TargetValue,
		CurrentValue:       req.CurrentValue,
		Unit:               req.Unit,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Status:             models.GoalActive,
		ProgressPercentage: 0,
		AlertThreshold:     req.AlertThreshold,
		CreatedBy:          req.CreatedBy,
	}
	if err := e.store.CreateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Get returns a goal by ID.
func (e *Engine) Get(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	return e.store.GetGoal(ctx, id)
}

// List returns goals filtered by optional status and metric type.
func (e *Engine) List(ctx context.Context, status *models.GoalStatus, metricType *models.MetricType) ([]models.Goal, error) {
	return e.store.ListGoals(ctx, status, metricType)
}

// Update applies a partial update to a goal.
func (e *Engine) Update(ctx context.Context, id uuid.UUID, req UpdateRequest) (*models.Goal, error) {
	unlock := e.lockGoal(id)
	defer unlock()

	goal, err := e.store.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		goal.Name = *req.Name
	}
	if req.Description != nil {
		goal.Description = *req.Description
	}
	if req.TargetValue != nil {
		if *req.TargetValue <= 0 {
			return nil, ErrInvalidTarget
		}
		goal.TargetValue = *req.TargetValue
	}
	if req.Unit != nil {
		goal.Unit = *req.Unit
	}
	if req.StartDate != nil {
		goal.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		goal.EndDate = *req.EndDate
	}
	if !goal.EndDate.After(goal.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("invalid goal status %q", *req.Status)
		}
		goal.Status = *req.Status
	}
	if req.AlertThreshold != nil {
		if *req.AlertThreshold <= 0 || *req.AlertThreshold > 100 {
			return nil, ErrInvalidThreshold
		}
		goal.AlertThreshold = req.AlertThreshold
	}

	if err := e.store.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// Cancel explicitly moves a goal to the cancelled state.
func (e *Engine) Cancel(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	cancelled := models.GoalCancelled
	return e.Update(ctx, id, UpdateRequest{Status: &cancelled})
}

// Delete removes a goal.
func (e *Engine) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := e.lockGoal(id)
	defer unlock()

	if err := e.store.DeleteGoal(ctx, id); err != nil {
		return err
	}
	e.locks.Delete(id)
	return nil
}

// UpdateProgress sets the goal's current value and recomputes everything
// derived from it: progress percentage, status, the one-shot alert
// latch, and the forecast. The whole cycle runs under the per-goal lock
// so concurrent updates serialize.
func (e *Engine) UpdateProgress(ctx context.Context, id uuid.UUID, currentValue float64) (*models.Goal, error) {
	unlock := e.lockGoal(id)
	defer unlock()

	goal, err := e.store.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}

	today := e.today()

	goal.CurrentValue = currentValue
	goal.ProgressPercentage = currentValue / goal.TargetValue * 100

	switch {
	case goal.ProgressPercentage >= 100:
		goal.Status = models.GoalAchieved
	case today.After(dateOnly(goal.EndDate)):
		goal.Status = models.GoalFailed
	default:
		goal.Status = models.GoalActive
	}

	if goal.AlertThreshold != nil && !goal.AlertSent && goal.ProgressPercentage >= *goal.AlertThreshold {
		goal.AlertSent = true
		e.sendAlert(ctx, goal)
	}

	forecast := e.calculateForecast(goal, today)
	goal.ForecastValue = &forecast
	now := e.now().UTC()
	goal.ForecastUpdatedAt = &now

	if err := e.store.UpdateGoal(ctx, goal); err != nil {
		return nil, err
	}
	return goal, nil
}

// sendAlert emits the one-shot threshold notification. Delivery failures
// are logged, not propagated: the latch flips regardless so the alert
// can never fire twice.
func (e *Engine) sendAlert(ctx context.Context, goal *models.Goal) {
	event := notify.Event{
		GoalID:   goal.ID,
		GoalName: goal.Name,
		Progress: goal.ProgressPercentage,
		Message:  fmt.Sprintf("Goal '%s' reached %.1f%% progress", goal.Name, goal.ProgressPercentage),
		SentAt:   e.now().UTC(),
	}
	if err := e.notifier.Notify(ctx, event); err != nil {
		logging.Warn().Err(err).Str("goal_id", goal.ID.String()).Msg("Goal alert delivery failed")
	}
}

// calculateForecast projects the final value from the average daily rate
// so far. With no elapsed days or a zero current value there is nothing
// to extrapolate and the current value is returned as-is.
func (e *Engine) calculateForecast(goal *models.Goal, today time.Time) float64 {
	daysElapsed := daysBetween(goal.StartDate, today)
	totalDays := daysBetween(goal.StartDate, goal.EndDate)

	if daysElapsed <= 0 || goal.CurrentValue == 0 {
		return goal.CurrentValue
	}

	dailyRate := goal.CurrentValue / float64(daysElapsed)
	return math.Round(dailyRate*float64(totalDays)*100) / 100
}

// Progress returns the detailed progress view for a goal.
func (e *Engine) Progress(ctx context.Context, id uuid.UUID) (*models.GoalProgress, error) {
	goal, err := e.store.GetGoal(ctx, id)
	if err != nil {
		return nil, err
	}

	today := e.today()
	daysRemaining := daysBetween(today, goal.EndDate)

	var dailyRequired *float64
	if daysRemaining > 0 {
		required := (goal.TargetValue - goal.CurrentValue) / float64(daysRemaining)
		dailyRequired = &required
	}

	totalDays := daysBetween(goal.StartDate, goal.EndDate)
	expectedProgress := 0.0
	if totalDays > 0 {
		expectedProgress = float64(daysBetween(goal.StartDate, today)) / float64(totalDays) * 100
	}

	return &models.GoalProgress{
		GoalID:             goal.ID,
		GoalName:           goal.Name,
		MetricType:         goal.MetricType,
		TargetValue:        goal.TargetValue,
		CurrentValue:       goal.CurrentValue,
		Unit:               goal.Unit,
		ProgressPercentage: goal.ProgressPercentage,
		Status:             goal.Status,
		DaysRemaining:      max(0, daysRemaining),
		DailyRequired:      dailyRequired,
		OnTrack:            goal.ProgressPercentage >= expectedProgress,
		ForecastValue:      goal.ForecastValue,
		ForecastUpdatedAt:  goal.ForecastUpdatedAt,
	}, nil
}

// Forecasts projects achievement for every active goal that has a
// computed forecast, optionally filtered by metric type.
func (e *Engine) Forecasts(ctx context.Context, metricType *models.MetricType) ([]models.GoalForecast, error) {
	active := models.GoalActive
	goals, err := e.store.ListGoals(ctx, &active, metricType)
	if err != nil {
		return nil, err
	}

	today := e.today()
	forecasts := make([]models.GoalForecast, 0, len(goals))
	for i := range goals {
		goal := &goals[i]
		if goal.ForecastValue == nil {
			continue
		}

		willAchieve := *goal.ForecastValue >= goal.TargetValue
		confidence := math.Min(0.95, goal.ProgressPercentage/100)

		var projectedDate *time.Time
		if goal.CurrentValue > 0 {
			daysElapsed := daysBetween(goal.StartDate, today)
			if daysElapsed > 0 {
				dailyRate := goal.CurrentValue / float64(daysElapsed)
				if dailyRate > 0 {
					daysToComplete := (goal.TargetValue - goal.CurrentValue) / dailyRate
					projected := today.AddDate(0, 0, int(daysToComplete))
					projectedDate = &projected
				}
			}
		}

		recommendation := "Progress is moderate. Increase pace to ensure goal achievement."
		if willAchieve {
			recommendation = "On track to achieve goal. Maintain current pace."
		} else if goal.ProgressPercentage < 50 {
			recommendation = "Behind schedule. Consider increasing efforts or adjusting target."
		}

		forecasts = append(forecasts, models.GoalForecast{
			GoalID:                  goal.ID,
			GoalName:                goal.Name,
			CurrentValue:            goal.CurrentValue,
			TargetValue:             goal.TargetValue,
			ForecastValue:           *goal.ForecastValue,
			ForecastConfidence:      confidence,
			WillAchieve:             willAchieve,
			ProjectedCompletionDate: projectedDate,
			RecommendedAction:       recommendation,
		})
	}
	return forecasts, nil
}

// today returns the engine clock's date at UTC midnight.
func (e *Engine) today() time.Time {
	return dateOnly(e.now().UTC())
}

// dateOnly truncates a timestamp to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from one date to another.
// Negative when to precedes from.
func daysBetween(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours() / 24)
}
