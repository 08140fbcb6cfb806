// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package sync

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// fakeFetcher returns a canned payload and records the request.
type fakeFetcher struct {
	payload map[string]any
	err     error

	lastURL    string
	lastParams url.Values
}

func (f *fakeFetcher) GetJSON(_ context.Context, rawURL string, params url.Values, out any) error {
	f.lastURL = rawURL
	f.lastParams = params
	if f.err != nil {
		return f.err
	}
	*out.(*map[string]any) = f.payload
	return nil
}

func TestNewCollectorUnknownService(t *testing.T) {
	if c := newCollector(models.ServiceAuth, "http://auth"); c != nil {
		t.Errorf("expected no collector for auth service, got %+v", c)
	}
}

func TestCollectPartners(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{
		"partners": []any{
			map[string]any{"id": "p-1", "type": "corporate", "is_active": true},
			map[string]any{"id": "p-2", "type": "individual"},
		},
	}}

	collector := newCollector(models.ServicePartnersCRM, "http://partners-crm")
	collected, failed, err := collector.Collect(context.Background(), fetcher, 500, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if failed != 0 {
		t.Errorf("expected no failures, got %d", failed)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(collected))
	}

	if fetcher.lastURL != "http://partners-crm/api/v1/partners" {
		t.Errorf("unexpected URL: %s", fetcher.lastURL)
	}
	if got := fetcher.lastParams.Get("limit"); got != strconv.Itoa(500) {
		t.Errorf("expected limit=500, got %q", got)
	}
	if fetcher.lastParams.Has("updated_since") {
		t.Errorf("expected no cutoff for full fetch, got %q", fetcher.lastParams.Get("updated_since"))
	}

	m := collected[0]
	if m.ServiceName != models.ServicePartnersCRM || m.MetricType != models.MetricPartner {
		t.Errorf("unexpected identity: %s/%s", m.ServiceName, m.MetricType)
	}
	if m.MetricName != "partner_active" || m.Value != 1.0 {
		t.Errorf("unexpected metric: %s=%f", m.MetricName, m.Value)
	}
	if m.Dimensions["partner_id"] != "p-1" || m.Dimensions["is_active"] != true {
		t.Errorf("unexpected dimensions: %v", m.Dimensions)
	}
	// Missing is_active defaults to false.
	if collected[1].Dimensions["is_active"] != false {
		t.Errorf("expected is_active false for second partner, got %v", collected[1].Dimensions["is_active"])
	}
	if m.Timestamp.IsZero() || m.Date.IsZero() {
		t.Error("expected timestamp and date to be set")
	}
}

func TestCollectWithCutoff(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{}}
	collector := newCollector(models.ServicePartnersCRM, "http://partners-crm")

	since := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	if _, _, err := collector.Collect(context.Background(), fetcher, 100, &since); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if got := fetcher.lastParams.Get("updated_since"); got != "2026-08-15T10:00:00Z" {
		t.Errorf("expected RFC 3339 cutoff, got %q", got)
	}
}

func TestCollectProjects(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{
		"projects": []any{
			map[string]any{"id": "pr-1", "type": "water", "status": "active"},
		},
	}}

	collector := newCollector(models.ServiceProjects, "http://projects")
	collected, _, err := collector.Collect(context.Background(), fetcher, 100, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(collected))
	}
	m := collected[0]
	if m.MetricName != "project_status" || m.MetricType != models.MetricProject {
		t.Errorf("unexpected metric: %+v", m)
	}
	if m.Dimensions["status"] != "active" {
		t.Errorf("unexpected dimensions: %v", m.Dimensions)
	}
}

func TestCollectSocialPosts(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{
		"posts": []any{
			map[string]any{"id": "post-1", "platform": "instagram", "type": "reel", "engagement": 245.0},
			map[string]any{"id": "post-2", "platform": "x", "engagement": "not-a-number"},
			map[string]any{"id": "post-3", "platform": "facebook"},
		},
	}}

	collector := newCollector(models.ServiceSocialMedia, "http://social")
	collected, failed, err := collector.Collect(context.Background(), fetcher, 100, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if failed != 1 {
		t.Errorf("expected 1 failed record, got %d", failed)
	}
	if len(collected) != 2 {
		t.Fatalf("expected 2 metrics, got %d", len(collected))
	}
	if collected[0].Value != 245 {
		t.Errorf("expected engagement 245, got %f", collected[0].Value)
	}
	// Missing engagement counts as zero, not a failure.
	if collected[1].Value != 0 {
		t.Errorf("expected zero engagement, got %f", collected[1].Value)
	}
}

func TestCollectNotifications(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{
		"notifications": []any{
			map[string]any{"id": "n-1", "channel": "email", "status": "delivered"},
		},
	}}

	collector := newCollector(models.ServiceNotification, "http://notification")
	collected, _, err := collector.Collect(context.Background(), fetcher, 100, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(collected))
	}
	if collected[0].MetricName != "notification_delivery" || collected[0].Dimensions["channel"] != "email" {
		t.Errorf("unexpected metric: %+v", collected[0])
	}
}

func TestCollectEmptyPayload(t *testing.T) {
	fetcher := &fakeFetcher{payload: map[string]any{}}

	collector := newCollector(models.ServiceProjects, "http://projects")
	collected, failed, err := collector.Collect(context.Background(), fetcher, 100, nil)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(collected) != 0 || failed != 0 {
		t.Errorf("expected empty result, got %d collected %d failed", len(collected), failed)
	}
}

func TestCollectFetchError(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("connection refused")}

	collector := newCollector(models.ServicePartnersCRM, "http://partners-crm")
	if _, _, err := collector.Collect(context.Background(), fetcher, 100, nil); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestNumberValue(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    float64
		wantErr bool
	}{
		{"float", 42.5, 42.5, false},
		{"int", 7, 7, false},
		{"nil", nil, 0, false},
		{"numeric string", "12.5", 12.5, false},
		{"bad string", "abc", 0, true},
		{"bool", true, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := numberValue(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error mismatch: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
