// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package validation

import (
	"strings"
	"testing"
)

type predictionRequest struct {
	MetricType string `validate:"required"`
	Days       int    `validate:"min=1,max=365"`
	Confidence float64 `validate:"gte=0.5,lte=0.99"`
}

func TestValidateStructPasses(t *testing.T) {
	req := predictionRequest{MetricType: "donation", Days: 30, Confidence: 0.95}
	if verr := ValidateStruct(&req); verr != nil {
		t.Fatalf("expected valid request, got %v", verr)
	}
}

func TestValidateStructRequired(t *testing.T) {
	req := predictionRequest{Days: 30, Confidence: 0.95}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation error")
	}

	errs := verr.Errors()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if errs[0].Field() != "MetricType" || errs[0].Tag() != "required" {
		t.Errorf("unexpected error: %s/%s", errs[0].Field(), errs[0].Tag())
	}
	if errs[0].Error() != "MetricType is required" {
		t.Errorf("unexpected message: %s", errs[0].Error())
	}
}

func TestValidateStructRangeMessages(t *testing.T) {
	tests := []struct {
		name    string
		req     predictionRequest
		message string
	}{
		{
			name:    "days below min",
			req:     predictionRequest{MetricType: "donation", Days: 0, Confidence: 0.9},
			message: "Days must be at least 1",
		},
		{
			name:    "days above max",
			req:     predictionRequest{MetricType: "donation", Days: 400, Confidence: 0.9},
			message: "Days must be at most 365",
		},
		{
			name:    "confidence below gte",
			req:     predictionRequest{MetricType: "donation", Days: 30, Confidence: 0.1},
			message: "Confidence must be greater than or equal to 0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if verr == nil {
				t.Fatal("expected validation error")
			}
			if got := verr.Errors()[0].Error(); got != tt.message {
				t.Errorf("expected %q, got %q", tt.message, got)
			}
		})
	}
}

func TestValidateStructOneof(t *testing.T) {
	type calcRequest struct {
		CalculationType string `validate:"required,oneof=correlation regression anomaly_detection"`
	}

	verr := ValidateStruct(&calcRequest{CalculationType: "magic"})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	want := "CalculationType must be one of: correlation regression anomaly_detection"
	if got := verr.Errors()[0].Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	verr := ValidateStruct(&predictionRequest{Days: 30, Confidence: 0.9})
	if verr == nil {
		t.Fatal("expected validation error")
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", apiErr.Code)
	}
	if apiErr.Details["field"] != "MetricType" {
		t.Errorf("expected field detail, got %v", apiErr.Details)
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	verr := ValidateStruct(&predictionRequest{Days: 0, Confidence: 0})
	if verr == nil {
		t.Fatal("expected validation error")
	}
	if len(verr.Errors()) < 2 {
		t.Fatalf("expected multiple errors, got %d", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("expected combined message, got %q", apiErr.Message)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Errorf("expected fields detail, got %v", apiErr.Details)
	}
}

func TestValidatorSingleton(t *testing.T) {
	if GetValidator() != GetValidator() {
		t.Error("expected the same validator instance")
	}
}
