// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package sync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/pulseboard/pulseboard/internal/logging"
)

// maxErrorBodySize limits how much of an upstream error response is read
// for error reporting.
const maxErrorBodySize = 64 * 1024 // 64KB

// maxRetryDelay caps the exponential backoff between retry attempts.
const maxRetryDelay = 10 * time.Second

// readBodyForError reads the response body for error reporting (max 64KB).
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// ServiceClient is the HTTP client for calls to upstream microservices.
// Failed requests are retried with exponential backoff (1s, 2s, 4s, capped
// at 10s) up to maxRetries attempts.
//
// Thread safety: all methods are safe for concurrent use.
type ServiceClient struct {
	httpClient *http.Client
	authToken  string
	maxRetries int
	retryDelay time.Duration
}

// NewServiceClient creates a client with the given request timeout and
// retry policy. authToken, when non-empty, is forwarded as a bearer token
// on every request.
func NewServiceClient(timeout time.Duration, maxRetries int, retryDelay time.Duration, authToken string) *ServiceClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &ServiceClient{
		httpClient: &http.Client{Timeout: timeout},
		authToken:  authToken,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// GetJSON performs a GET against rawURL with the given query parameters and
// decodes the JSON response into out. The request is retried on any
// transport or HTTP error until maxRetries is exhausted; the last error is
// returned.
func (c *ServiceClient) GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.doGet(ctx, rawURL, params, out); err != nil {
			lastErr = err
			logging.Warn().
				Err(err).
				Str("url", rawURL).
				Int("attempt", attempt).
				Int("max_attempts", c.maxRetries).
				Msg("Upstream GET request failed")

			if attempt < c.maxRetries {
				if waitErr := c.waitBeforeRetry(ctx, attempt); waitErr != nil {
					return waitErr
				}
			}
			continue
		}
		return nil
	}

	return fmt.Errorf("request failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *ServiceClient) doGet(ctx context.Context, rawURL string, params url.Values, out any) error {
	requestURL := rawURL
	if len(params) > 0 {
		requestURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer closeQuietly(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// waitBeforeRetry sleeps for the backoff interval of the given attempt,
// doubling each time and capped at maxRetryDelay. Returns early with the
// context error when the context is canceled.
func (c *ServiceClient) waitBeforeRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay << (attempt - 1)
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close response body")
	}
}
