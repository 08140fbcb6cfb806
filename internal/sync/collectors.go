// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package sync

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/pulseboard/pulseboard/internal/logging"
	"github.com/pulseboard/pulseboard/internal/models"
)

// jsonFetcher abstracts the HTTP layer so collectors can be exercised
// against fakes. Both ServiceClient and BreakerClient satisfy it.
type jsonFetcher interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error
}

// Collector fetches one upstream service's records and maps them to
// metrics. Records that fail to map are counted and skipped; they never
// abort the run.
type Collector struct {
	service    models.ServiceName
	baseURL    string
	path       string
	payloadKey string
	mapRecord  func(record map[string]any, now time.Time) (*models.Metric, error)
}

// newCollector builds the collector for a known upstream service.
// Returns nil for services without a collector mapping.
func newCollector(service models.ServiceName, baseURL string) *Collector {
	c := &Collector{service: service, baseURL: baseURL}

	switch service {
	case models.ServicePartnersCRM:
		c.path = "/api/v1/partners"
		c.payloadKey = "partners"
		c.mapRecord = mapPartnerRecord
	case models.ServiceProjects:
		c.path = "/api/v1/projects"
		c.payloadKey = "projects"
		c.mapRecord = mapProjectRecord
	case models.ServiceSocialMedia:
		c.path = "/api/v1/posts"
		c.payloadKey = "posts"
		c.mapRecord = mapSocialPostRecord
	case models.ServiceNotification:
		c.path = "/api/v1/notifications"
		c.payloadKey = "notifications"
		c.mapRecord = mapNotificationRecord
	default:
		return nil
	}
	return c
}

// Service returns the upstream service this collector syncs.
func (c *Collector) Service() models.ServiceName {
	return c.service
}

// Collect fetches up to batchSize records and maps them to metrics.
// A non-nil since narrows the fetch to records updated after that time,
// so incremental runs skip records already synced. The failed count
// covers records that could not be mapped.
func (c *Collector) Collect(ctx context.Context, fetcher jsonFetcher, batchSize int, since *time.Time) (collected []*models.Metric, failed int, err error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(batchSize))
	if since != nil {
		params.Set("updated_since", since.UTC().Format(time.RFC3339))
	}

	var response map[string]any
	if err := fetcher.GetJSON(ctx, c.baseURL+c.path, params, &response); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch %s records: %w", c.service, err)
	}

	records, _ := response[c.payloadKey].([]any)
	now := time.Now().UTC()
	collected = make([]*models.Metric, 0, len(records))

	for _, raw := range records {
		record, ok := raw.(map[string]any)
		if !ok {
			failed++
			continue
		}
		metric, err := c.mapRecord(record, now)
		if err != nil {
			logging.Warn().
				Err(err).
				Str("service", string(c.service)).
				Msg("Failed to map upstream record")
			failed++
			continue
		}
		collected = append(collected, metric)
	}

	return collected, failed, nil
}

func mapPartnerRecord(record map[string]any, now time.Time) (*models.Metric, error) {
	return &models.Metric{
		ServiceName: models.ServicePartnersCRM,
		MetricType:  models.MetricPartner,
		MetricName:  "partner_active",
		Value:       1.0,
		Dimensions: map[string]any{
			"partner_id":   record["id"],
			"partner_type": record["type"],
			"is_active":    boolValue(record["is_active"]),
		},
		Timestamp: now,
		Date:      now.Truncate(24 * time.Hour),
	}, nil
}

func mapProjectRecord(record map[string]any, now time.Time) (*models.Metric, error) {
	return &models.Metric{
		ServiceName: models.ServiceProjects,
		MetricType:  models.MetricProject,
		MetricName:  "project_status",
		Value:       1.0,
		Dimensions: map[string]any{
			"project_id":   record["id"],
			"project_type": record["type"],
			"status":       record["status"],
		},
		Timestamp: now,
		Date:      now.Truncate(24 * time.Hour),
	}, nil
}

func mapSocialPostRecord(record map[string]any, now time.Time) (*models.Metric, error) {
	engagement, err := numberValue(record["engagement"])
	if err != nil {
		return nil, fmt.Errorf("invalid engagement value: %w", err)
	}
	return &models.Metric{
		ServiceName: models.ServiceSocialMedia,
		MetricType:  models.MetricSocialPost,
		MetricName:  "post_engagement",
		Value:       engagement,
		Dimensions: map[string]any{
			"post_id":   record["id"],
			"platform":  record["platform"],
			"post_type": record["type"],
		},
		Timestamp: now,
		Date:      now.Truncate(24 * time.Hour),
	}, nil
}

func mapNotificationRecord(record map[string]any, now time.Time) (*models.Metric, error) {
	return &models.Metric{
		ServiceName: models.ServiceNotification,
		MetricType:  models.MetricNotification,
		MetricName:  "notification_delivery",
		Value:       1.0,
		Dimensions: map[string]any{
			"notification_id": record["id"],
			"channel":         record["channel"],
			"status":          record["status"],
		},
		Timestamp: now,
		Date:      now.Truncate(24 * time.Hour),
	}, nil
}

// numberValue converts a decoded JSON value to float64. Missing values
// count as zero; non-numeric values are an error.
func numberValue(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("unsupported numeric type %T", v)
	}
}

func boolValue(v any) bool {
	b, _ := v.(bool)
	return b
}
