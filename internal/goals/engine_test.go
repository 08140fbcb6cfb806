// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package goals

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/models"
	"github.com/pulseboard/pulseboard/internal/notify"
)

// fakeStore is an in-memory Store with the same not-found semantics as
// the database layer.
type fakeStore struct {
	mu    sync.Mutex
	goals map[uuid.UUID]models.Goal
}

var errGoalNotFound = errors.New("goal not found")

func newFakeStore() *fakeStore {
	return &fakeStore{goals: make(map[uuid.UUID]models.Goal)}
}

func (s *fakeStore) CreateGoal(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if goal.ID == uuid.Nil {
		goal.ID = uuid.New()
	}
	if goal.Status == "" {
		goal.Status = models.GoalActive
	}
	goal.CreatedAt = time.Now().UTC()
	s.goals[goal.ID] = *goal
	return nil
}

func (s *fakeStore) GetGoal(_ context.Context, id uuid.UUID) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	goal, ok := s.goals[id]
	if !ok {
		return nil, errGoalNotFound
	}
	copied := goal
	return &copied, nil
}

func (s *fakeStore) ListGoals(_ context.Context, status *models.GoalStatus, metricType *models.MetricType) ([]models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := make([]models.Goal, 0)
	for _, goal := range s.goals {
		if status != nil && goal.Status != *status {
			continue
		}
		if metricType != nil && goal.MetricType != *metricType {
			continue
		}
		matched = append(matched, goal)
	}
	return matched, nil
}

func (s *fakeStore) UpdateGoal(_ context.Context, goal *models.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[goal.ID]; !ok {
		return errGoalNotFound
	}
	s.goals[goal.ID] = *goal
	return nil
}

func (s *fakeStore) DeleteGoal(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.goals[id]; !ok {
		return errGoalNotFound
	}
	delete(s.goals, id)
	return nil
}

// countingNotifier records alert deliveries.
type countingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *countingNotifier) Notify(_ context.Context, event notify.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

var testToday = time.Date(2026, 7, 15, 10, 30, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *fakeStore, *countingNotifier) {
	t.Helper()
	store := newFakeStore()
	notifier := &countingNotifier{}
	engine := NewEngine(store, notifier)
	engine.SetClock(func() time.Time { return testToday })
	return engine, store, notifier
}

func createTestGoal(t *testing.T, engine *Engine, mutate func(*CreateRequest)) *models.Goal {
	t.Helper()
	req := CreateRequest{
		Name:        "donations target",
		MetricType:  models.MetricDonation,
		TargetValue: 1000,
		StartDate:   testToday.AddDate(0, 0, -10),
		EndDate:     testToday.AddDate(0, 0, 90),
	}
	if mutate != nil {
		mutate(&req)
	}
	goal, err := engine.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return goal
}

func TestCreateValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*CreateRequest)
		wantErr error
	}{
		{"zero target", func(r *CreateRequest) { r.TargetValue = 0 }, ErrInvalidTarget},
		{"negative target", func(r *CreateRequest) { r.TargetValue = -5 }, ErrInvalidTarget},
		{"end before start", func(r *CreateRequest) { r.EndDate = r.StartDate.AddDate(0, 0, -1) }, ErrInvalidDateRange},
		{"threshold above 100", func(r *CreateRequest) { v := 150.0; r.AlertThreshold = &v }, ErrInvalidThreshold},
		{"threshold zero", func(r *CreateRequest) { v := 0.0; r.AlertThreshold = &v }, ErrInvalidThreshold},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := CreateRequest{
				Name:        "bad goal",
				MetricType:  models.MetricDonation,
				TargetValue: 1000,
				StartDate:   testToday,
				EndDate:     testToday.AddDate(0, 0, 30),
			}
			tt.mutate(&req)
			if _, err := engine.Create(ctx, req); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateProgressRecomputesPercentage(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, nil)

	updated, err := engine.UpdateProgress(context.Background(), goal.ID, 250)
	if err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if updated.ProgressPercentage != 25 {
		t.Errorf("expected progress 25, got %f", updated.ProgressPercentage)
	}
	if updated.Status != models.GoalActive {
		t.Errorf("expected status active, got %s", updated.Status)
	}
	if updated.ForecastValue == nil {
		t.Fatal("expected forecast to be computed")
	}
	if updated.ForecastUpdatedAt == nil {
		t.Error("expected forecast timestamp to be set")
	}
}

func TestUpdateProgressAchievedBeatsExpiredDate(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.StartDate = testToday.AddDate(0, 0, -60)
		r.EndDate = testToday.AddDate(0, 0, -30)
	})

	updated, err := engine.UpdateProgress(context.Background(), goal.ID, 1200)
	if err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if updated.Status != models.GoalAchieved {
		t.Errorf("expected achieved regardless of expired end date, got %s", updated.Status)
	}
	if updated.ProgressPercentage != 120 {
		t.Errorf("expected progress to exceed 100, got %f", updated.ProgressPercentage)
	}
}

func TestUpdateProgressFailsPastEndDate(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.StartDate = testToday.AddDate(0, 0, -60)
		r.EndDate = testToday.AddDate(0, 0, -1)
	})

	updated, err := engine.UpdateProgress(context.Background(), goal.ID, 400)
	if err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if updated.Status != models.GoalFailed {
		t.Errorf("expected failed past end date, got %s", updated.Status)
	}
}

func TestUpdateProgressEndDateTodayStaysActive(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.StartDate = testToday.AddDate(0, 0, -30)
		r.EndDate = testToday
	})

	updated, err := engine.UpdateProgress(context.Background(), goal.ID, 400)
	if err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if updated.Status != models.GoalActive {
		t.Errorf("expected active on the end date itself, got %s", updated.Status)
	}
}

func TestAlertFiresExactlyOnce(t *testing.T) {
	engine, _, notifier := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		v := 50.0
		r.AlertThreshold = &v
	})
	ctx := context.Background()

	// Below threshold: no alert.
	if _, err := engine.UpdateProgress(ctx, goal.ID, 400); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if notifier.count() != 0 {
		t.Fatalf("expected no alert below threshold, got %d", notifier.count())
	}

	// Crossing the threshold fires once.
	if _, err := engine.UpdateProgress(ctx, goal.ID, 600); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if notifier.count() != 1 {
		t.Fatalf("expected one alert, got %d", notifier.count())
	}

	// Staying above, dipping below, and crossing again never re-fires.
	for _, value := range []float64{700, 300, 900} {
		if _, err := engine.UpdateProgress(ctx, goal.ID, value); err != nil {
			t.Fatalf("UpdateProgress failed: %v", err)
		}
	}
	if notifier.count() != 1 {
		t.Errorf("alert latch re-fired: %d alerts", notifier.count())
	}
}

func TestCalculateForecast(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		current float64
		want    float64
	}{
		{
			// 10 days elapsed of 100: rate 5/day over 100 days.
			name:    "linear projection",
			start:   testToday.AddDate(0, 0, -10),
			end:     testToday.AddDate(0, 0, 90),
			current: 50,
			want:    500,
		},
		{
			name:    "zero current short-circuits",
			start:   testToday.AddDate(0, 0, -10),
			end:     testToday.AddDate(0, 0, 90),
			current: 0,
			want:    0,
		},
		{
			name:    "starts today, no elapsed days",
			start:   testToday,
			end:     testToday.AddDate(0, 0, 90),
			current: 25,
			want:    25,
		},
		{
			name:    "future start date",
			start:   testToday.AddDate(0, 0, 5),
			end:     testToday.AddDate(0, 0, 90),
			current: 25,
			want:    25,
		},
		{
			name:    "rounds to 2 decimals",
			start:   testToday.AddDate(0, 0, -3),
			end:     testToday.AddDate(0, 0, 4),
			current: 10,
			want:    23.33,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := &models.Goal{
				StartDate:    tt.start,
				EndDate:      tt.end,
				CurrentValue: tt.current,
				TargetValue:  1000,
			}
			got := engine.calculateForecast(goal, engine.today())
			if got != tt.want {
				t.Errorf("expected forecast %f, got %f", tt.want, got)
			}
		})
	}
}

func TestProgressView(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.TargetValue = 100000
		r.StartDate = testToday
		r.EndDate = testToday.AddDate(0, 0, 90)
	})

	if _, err := engine.UpdateProgress(context.Background(), goal.ID, 25000); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	progress, err := engine.Progress(context.Background(), goal.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}

	if progress.ProgressPercentage != 25 {
		t.Errorf("expected progress 25, got %f", progress.ProgressPercentage)
	}
	if progress.Status != models.GoalActive {
		t.Errorf("expected active, got %s", progress.Status)
	}
	if progress.DaysRemaining != 90 {
		t.Errorf("expected 90 days remaining, got %d", progress.DaysRemaining)
	}
	// Expected linear progress is 0 on the start date, so any progress is on track.
	if !progress.OnTrack {
		t.Error("expected on_track at creation time")
	}
	if progress.DailyRequired == nil {
		t.Fatal("expected daily required progress")
	}
	want := (100000.0 - 25000.0) / 90.0
	if *progress.DailyRequired != want {
		t.Errorf("expected daily required %f, got %f", want, *progress.DailyRequired)
	}
}

func TestProgressViewPastEndDate(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.StartDate = testToday.AddDate(0, 0, -60)
		r.EndDate = testToday.AddDate(0, 0, -10)
	})

	progress, err := engine.Progress(context.Background(), goal.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if progress.DaysRemaining != 0 {
		t.Errorf("expected days remaining floored at 0, got %d", progress.DaysRemaining)
	}
	if progress.DailyRequired != nil {
		t.Errorf("expected no daily required past end date, got %f", *progress.DailyRequired)
	}
	// 100% of the window has elapsed with 0% progress.
	if progress.OnTrack {
		t.Error("expected off track")
	}
}

func TestProgressBehindSchedule(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.StartDate = testToday.AddDate(0, 0, -50)
		r.EndDate = testToday.AddDate(0, 0, 50)
	})

	// Halfway through the window with 10% progress.
	if _, err := engine.UpdateProgress(context.Background(), goal.ID, 100); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	progress, err := engine.Progress(context.Background(), goal.ID)
	if err != nil {
		t.Fatalf("Progress failed: %v", err)
	}
	if progress.OnTrack {
		t.Error("expected off track at 10% progress halfway through")
	}
}

func TestForecastsRecommendations(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	// On track: forecast will exceed target.
	onTrack := createTestGoal(t, engine, func(r *CreateRequest) {
		r.Name = "on track"
		r.StartDate = testToday.AddDate(0, 0, -10)
		r.EndDate = testToday.AddDate(0, 0, 90)
	})
	if _, err := engine.UpdateProgress(ctx, onTrack.ID, 600); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	// Behind: low progress and low forecast.
	behind := createTestGoal(t, engine, func(r *CreateRequest) {
		r.Name = "behind"
		r.StartDate = testToday.AddDate(0, 0, -50)
		r.EndDate = testToday.AddDate(0, 0, 50)
	})
	if _, err := engine.UpdateProgress(ctx, behind.ID, 100); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	// Moderate: above 50% progress but forecast short of target.
	moderate := createTestGoal(t, engine, func(r *CreateRequest) {
		r.Name = "moderate"
		r.StartDate = testToday.AddDate(0, 0, -80)
		r.EndDate = testToday.AddDate(0, 0, 20)
	})
	if _, err := engine.UpdateProgress(ctx, moderate.ID, 600); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	forecasts, err := engine.Forecasts(ctx, nil)
	if err != nil {
		t.Fatalf("Forecasts failed: %v", err)
	}
	if len(forecasts) != 3 {
		t.Fatalf("expected 3 forecasts, got %d", len(forecasts))
	}

	byName := map[string]models.GoalForecast{}
	for _, f := range forecasts {
		byName[f.GoalName] = f
	}

	if f := byName["on track"]; !f.WillAchieve ||
		f.RecommendedAction != "On track to achieve goal. Maintain current pace." {
		t.Errorf("unexpected on-track forecast: %+v", f)
	}
	if f := byName["behind"]; f.WillAchieve ||
		f.RecommendedAction != "Behind schedule. Consider increasing efforts or adjusting target." {
		t.Errorf("unexpected behind forecast: %+v", f)
	}
	if f := byName["moderate"]; f.WillAchieve ||
		f.RecommendedAction != "Progress is moderate. Increase pace to ensure goal achievement." {
		t.Errorf("unexpected moderate forecast: %+v", f)
	}

	if f := byName["on track"]; f.ProjectedCompletionDate == nil {
		t.Error("expected projected completion date for goal with positive rate")
	}
	if f := byName["behind"]; f.ForecastConfidence != 0.1 {
		t.Errorf("expected confidence 0.1 for 10%% progress, got %f", f.ForecastConfidence)
	}
}

func TestForecastsConfidenceCap(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	goal := createTestGoal(t, engine, func(r *CreateRequest) {
		r.StartDate = testToday.AddDate(0, 0, -10)
		r.EndDate = testToday.AddDate(0, 0, 90)
	})
	// 99% progress: confidence capped at 0.95.
	if _, err := engine.UpdateProgress(ctx, goal.ID, 990); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	forecasts, err := engine.Forecasts(ctx, nil)
	if err != nil {
		t.Fatalf("Forecasts failed: %v", err)
	}
	if len(forecasts) != 1 {
		t.Fatalf("expected 1 forecast, got %d", len(forecasts))
	}
	if forecasts[0].ForecastConfidence != 0.95 {
		t.Errorf("expected confidence capped at 0.95, got %f", forecasts[0].ForecastConfidence)
	}
}

func TestForecastsSkipGoalsWithoutForecast(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	createTestGoal(t, engine, nil) // never progressed: no forecast value

	forecasts, err := engine.Forecasts(context.Background(), nil)
	if err != nil {
		t.Fatalf("Forecasts failed: %v", err)
	}
	if len(forecasts) != 0 {
		t.Errorf("expected no forecasts for unprogressed goals, got %d", len(forecasts))
	}
}

func TestForecastsExcludeInactiveGoals(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	goal := createTestGoal(t, engine, nil)
	if _, err := engine.UpdateProgress(ctx, goal.ID, 500); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if _, err := engine.Cancel(ctx, goal.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	forecasts, err := engine.Forecasts(ctx, nil)
	if err != nil {
		t.Fatalf("Forecasts failed: %v", err)
	}
	if len(forecasts) != 0 {
		t.Errorf("expected cancelled goals excluded, got %d forecasts", len(forecasts))
	}
}

func TestUpdatePartialFields(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, nil)

	newName := "renamed"
	newTarget := 2000.0
	updated, err := engine.Update(context.Background(), goal.ID, UpdateRequest{
		Name:        &newName,
		TargetValue: &newTarget,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Name != "renamed" || updated.TargetValue != 2000 {
		t.Errorf("partial update not applied: %+v", updated)
	}
	if updated.MetricType != models.MetricDonation {
		t.Errorf("untouched field changed: %s", updated.MetricType)
	}
}

func TestGoalNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()
	missing := uuid.New()

	if _, err := engine.Get(ctx, missing); !errors.Is(err, errGoalNotFound) {
		t.Errorf("Get: expected not found, got %v", err)
	}
	if _, err := engine.UpdateProgress(ctx, missing, 10); !errors.Is(err, errGoalNotFound) {
		t.Errorf("UpdateProgress: expected not found, got %v", err)
	}
	if _, err := engine.Progress(ctx, missing); !errors.Is(err, errGoalNotFound) {
		t.Errorf("Progress: expected not found, got %v", err)
	}
	if err := engine.Delete(ctx, missing); !errors.Is(err, errGoalNotFound) {
		t.Errorf("Delete: expected not found, got %v", err)
	}
}

func TestConcurrentProgressUpdates(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	goal := createTestGoal(t, engine, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(value float64) {
			defer wg.Done()
			if _, err := engine.UpdateProgress(ctx, goal.ID, value); err != nil {
				t.Errorf("UpdateProgress failed: %v", err)
			}
		}(float64(i * 10))
	}
	wg.Wait()

	final, err := store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	// Whatever update landed last, the derived fields must be consistent
	// with its current value.
	wantProgress := final.CurrentValue / final.TargetValue * 100
	if final.ProgressPercentage != wantProgress {
		t.Errorf("torn state: current %f but progress %f", final.CurrentValue, final.ProgressPercentage)
	}
	if final.ForecastValue == nil {
		t.Error("expected forecast after updates")
	}
}
