// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package analytics

import "testing"

func TestLinearFit(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		wantSlope     float64
		wantIntercept float64
	}{
		{"evenly spaced", []float64{10, 20, 30, 40, 50}, 10, 10},
		{"flat", []float64{7, 7, 7}, 0, 7},
		{"single point", []float64{42}, 0, 42},
		{"empty", nil, 0, 0},
		{"descending", []float64{30, 20, 10}, -10, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slope, intercept := linearFit(tt.values)
			if !almostEqual(slope, tt.wantSlope) {
				t.Errorf("slope = %f, want %f", slope, tt.wantSlope)
			}
			if !almostEqual(intercept, tt.wantIntercept) {
				t.Errorf("intercept = %f, want %f", intercept, tt.wantIntercept)
			}
		})
	}
}

func TestIndexCorrelation(t *testing.T) {
	if r := indexCorrelation([]float64{10, 20, 30}); !almostEqual(r, 1) {
		t.Errorf("expected correlation 1 for linear series, got %f", r)
	}
	if r := indexCorrelation([]float64{30, 20, 10}); !almostEqual(r, -1) {
		t.Errorf("expected correlation -1 for reversed series, got %f", r)
	}
	if r := indexCorrelation([]float64{5, 5, 5}); r != 0 {
		t.Errorf("expected 0 for zero-variance series, got %f", r)
	}
	if r := indexCorrelation([]float64{5}); r != 0 {
		t.Errorf("expected 0 for single point, got %f", r)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10.0"},
		{10.25, "10.25"},
		{0.6, "0.6"},
		{-5, "-5.0"},
		{0, "0.0"},
		{20.5, "20.5"},
	}

	for _, tt := range tests {
		if got := formatNumber(tt.in); got != tt.want {
			t.Errorf("formatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLagAutocorrelation(t *testing.T) {
	// Perfectly periodic series: autocorrelation 1 at its period.
	periodic := []float64{1, 5, 1, 5, 1, 5, 1, 5}
	if ac := lagAutocorrelation(periodic, 2); !almostEqual(ac, 1) {
		t.Errorf("expected autocorrelation 1 at period lag, got %f", ac)
	}
	// Anti-phase lag: strong negative autocorrelation.
	if ac := lagAutocorrelation(periodic, 1); ac >= 0 {
		t.Errorf("expected negative autocorrelation at half-period lag, got %f", ac)
	}
	if ac := lagAutocorrelation([]float64{1, 2}, 5); ac != 0 {
		t.Errorf("expected 0 for series shorter than lag, got %f", ac)
	}
	if ac := lagAutocorrelation([]float64{3, 3, 3, 3}, 1); ac != 0 {
		t.Errorf("expected 0 for zero-variance series, got %f", ac)
	}
}
