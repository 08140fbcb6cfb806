// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package models

import (
	"time"

	"github.com/google/uuid"
)

// ServiceName identifies the upstream microservice that produced a metric.
// The string values are the wire and storage contract; they must match the
// identifiers used by the upstream services exactly.
type ServiceName string

const (
	ServiceAuth         ServiceName = "auth"
	ServiceContent      ServiceName = "content"
	ServicePartnersCRM  ServiceName = "partners_crm"
	ServiceProjects     ServiceName = "projects"
	ServiceSocialMedia  ServiceName = "social_media"
	ServiceNotification ServiceName = "notification"
)

// AllServiceNames lists every known service in a stable order.
// Comparison analytics iterate this list so that services with zero
// matching metrics still produce a data point.
var AllServiceNames = []ServiceName{
	ServiceAuth,
	ServiceContent,
	ServicePartnersCRM,
	ServiceProjects,
	ServiceSocialMedia,
	ServiceNotification,
}

// Valid reports whether the service name is a known enum value.
func (s ServiceName) Valid() bool {
	for _, known := range AllServiceNames {
		if s == known {
			return true
		}
	}
	return false
}

// MetricType categorizes a metric independent of the producing service.
type MetricType string

const (
	MetricDonation     MetricType = "donation"
	MetricPartner      MetricType = "partner"
	MetricProject      MetricType = "project"
	MetricBeneficiary  MetricType = "beneficiary"
	MetricSocialPost   MetricType = "social_post"
	MetricNotification MetricType = "notification"
	MetricEngagement   MetricType = "engagement"
	MetricConversion   MetricType = "conversion"
	MetricRevenue      MetricType = "revenue"
)

// AllMetricTypes lists every known metric type.
var AllMetricTypes = []MetricType{
	MetricDonation,
	MetricPartner,
	MetricProject,
	MetricBeneficiary,
	MetricSocialPost,
	MetricNotification,
	MetricEngagement,
	MetricConversion,
	MetricRevenue,
}

// Valid reports whether the metric type is a known enum value.
func (m MetricType) Valid() bool {
	for _, known := range AllMetricTypes {
		if m == known {
			return true
		}
	}
	return false
}

// Metric is an immutable timestamped fact: a named numeric observation
// from an upstream service with optional dimensional tags.
//
// Metrics are append-only. They are created once by the sync layer and
// never mutated; deletion happens only through explicit administrative
// requests. Date must equal the calendar date of Timestamp; callers keep
// the two consistent, the store does not recompute it.
type Metric struct {
	ID          uuid.UUID      `json:"id"`
	ServiceName ServiceName    `json:"service_name"`
	MetricType  MetricType     `json:"metric_type"`
	MetricName  string         `json:"metric_name"`
	Value       float64        `json:"value"`
	Unit        string         `json:"unit,omitempty"`
	Dimensions  map[string]any `json:"dimensions,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
	Date        time.Time      `json:"date"`
	Meta        map[string]any `json:"meta,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// MetricFilter narrows metric queries. Nil fields are ignored.
type MetricFilter struct {
	ServiceName *ServiceName
	MetricType  *MetricType
	MetricName  *string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// AggregationResult holds group-by summary statistics over a filtered
// metric set. Results are transient; they are recomputed per request and
// never persisted.
type AggregationResult struct {
	GroupKey string  `json:"group_key"`
	Count    int64   `json:"count"`
	Sum      float64 `json:"sum"`
	Avg      float64 `json:"avg"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// TimeSeriesPoint is a daily aggregation bucket.
type TimeSeriesPoint struct {
	Timestamp string  `json:"timestamp"`
	Count     int64   `json:"count"`
	Sum       float64 `json:"sum"`
	Avg       float64 `json:"avg"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// SyncStatus tracks the lifecycle of a sync run.
type SyncStatus string

const (
	SyncPending   SyncStatus = "pending"
	SyncRunning   SyncStatus = "running"
	SyncCompleted SyncStatus = "completed"
	SyncFailed    SyncStatus = "failed"
)

// SyncRun records one synchronization attempt against an upstream service.
type SyncRun struct {
	ID               uuid.UUID   `json:"id"`
	ServiceName      ServiceName `json:"service_name"`
	SyncType         string      `json:"sync_type"`
	Status           SyncStatus  `json:"status"`
	RecordsProcessed int         `json:"records_processed"`
	RecordsFailed    int         `json:"records_failed"`
	ErrorMessage     string      `json:"error_message,omitempty"`
	StartedAt        time.Time   `json:"started_at"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}
