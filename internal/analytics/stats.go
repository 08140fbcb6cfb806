// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package analytics

import (
	"math"
	"strconv"
	"strings"
)

// mean returns the arithmetic mean, 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance returns the population variance, 0 for an empty slice.
func variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(values))
}

// stdDev returns the population standard deviation.
func stdDev(values []float64) float64 {
	return math.Sqrt(variance(values))
}

// linearFit computes an ordinary least-squares fit of value against
// sequence index 0..n-1. With fewer than 2 points the slope is 0 and the
// intercept is the single value (or 0 when empty).
func linearFit(values []float64) (slope, intercept float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, values[0]
	}

	meanX := float64(n-1) / 2
	meanY := mean(values)

	var num, den float64
	for i, v := range values {
		dx := float64(i) - meanX
		num += dx * (v - meanY)
		den += dx * dx
	}
	if den == 0 {
		return 0, meanY
	}
	slope = num / den
	intercept = meanY - slope*meanX
	return slope, intercept
}

// indexCorrelation returns the Pearson correlation between sequence
// index and value. Returns 0 when the correlation is undefined (fewer
// than 2 points or zero variance in the values).
func indexCorrelation(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	meanX := float64(n-1) / 2
	meanY := mean(values)

	var cov, varX, varY float64
	for i, v := range values {
		dx := float64(i) - meanX
		dy := v - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// lagAutocorrelation computes the autocorrelation of the series at the
// given lag, normalized by population variance. Returns 0 when the
// series is too short or has zero variance.
func lagAutocorrelation(values []float64, lag int) float64 {
	n := len(values)
	if n <= lag {
		return 0
	}
	v := variance(values)
	if v == 0 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for i := 0; i < n-lag; i++ {
		sum += (values[i] - m) * (values[i+lag] - m)
	}
	return sum / float64(n-lag) / v
}

// round2 rounds to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round3 rounds to 3 decimal places.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// formatNumber renders a float the way dynamic-language clients of this
// API historically saw it: minimal digits, but integral values keep a
// trailing ".0" (10 renders as "10.0", 10.25 as "10.25").
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
