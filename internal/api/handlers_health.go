// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"net/http"
	"time"

	"github.com/pulseboard/pulseboard/internal/models"
)

// healthStatus is the payload for the full health endpoint.
type healthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	SyncEnabled       bool       `json:"sync_enabled"`
	LastSyncTime      *time.Time `json:"last_sync_time,omitempty"`
	UptimeSeconds     float64    `json:"uptime_seconds"`
}

// Health handles GET /api/v1/health with database connectivity and last
// sync time. A reachable process with an unreachable database reports
// degraded rather than failing the request.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	var lastSync *time.Time
	if h.sync != nil {
		if t := h.sync.LastSyncTime(); !t.IsZero() {
			lastSync = &t
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: healthStatus{
			Status:            status,
			Version:           "1.0.0",
			DatabaseConnected: dbConnected,
			SyncEnabled:       h.sync != nil,
			LastSyncTime:      lastSync,
			UptimeSeconds:     time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthLive handles GET /api/v1/health/live. Returns 200 whenever the
// process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]any{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}

// HealthReady handles GET /api/v1/health/ready. Returns 200 only when the
// database answers a ping, 503 otherwise. The payload carries table record
// counts so readiness probes double as a cheap data-volume check.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if h.store == nil || h.store.Ping(r.Context()) != nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_ERROR", "Database not available", nil)
		return
	}

	data := map[string]any{"ready": true}
	if metricCount, goalCount, err := h.store.GetRecordCounts(r.Context()); err == nil {
		data["record_counts"] = map[string]int64{
			"metrics": metricCount,
			"goals":   goalCount,
		}
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status:   "success",
		Data:     data,
		Metadata: models.Metadata{Timestamp: time.Now()},
	})
}
