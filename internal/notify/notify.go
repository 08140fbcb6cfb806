// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

// Package notify delivers one-shot goal alerts to external channels.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/pulseboard/pulseboard/internal/logging"
)

// Event is a goal alert payload.
type Event struct {
	GoalID   uuid.UUID `json:"goal_id"`
	GoalName string    `json:"goal_name"`
	Progress float64   `json:"progress_percentage"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// Notifier delivers alert events. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes alerts to the structured log. It is the fallback
// channel when no webhook is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Notify logs the alert at warn level so it stands out in default log
// configurations.
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	logging.Warn().
		Str("goal_id", event.GoalID.String()).
		Str("goal_name", event.GoalName).
		Float64("progress", event.Progress).
		Msg(event.Message)
	return nil
}

// WebhookNotifier POSTs alerts as JSON to a configured URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook notifier with the given timeout.
func NewWebhookNotifier(url string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Notify delivers the event. Non-2xx responses are errors.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode alert payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build alert request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("alert delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("alert webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// MultiNotifier fans an event out to several notifiers. Delivery
// continues past individual failures; the first error is returned.
type MultiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier combines notifiers.
func NewMultiNotifier(notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Notify delivers to every configured notifier.
func (n *MultiNotifier) Notify(ctx context.Context, event Event) error {
	var firstErr error
	for _, notifier := range n.notifiers {
		if err := notifier.Notify(ctx, event); err != nil {
			logging.Warn().Err(err).Str("goal_id", event.GoalID.String()).Msg("Alert delivery failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
