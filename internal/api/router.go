// Pulseboard - Cross-Service Metrics Aggregation and Goal Tracking
// Copyright 2026 Pulseboard contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pulseboard/pulseboard

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulseboard/pulseboard/internal/config"
	"github.com/pulseboard/pulseboard/internal/metrics"
	"github.com/pulseboard/pulseboard/internal/middleware"
)

// healthRateLimit allows frequent probe traffic while still capping abuse.
const (
	healthRateLimit  = 1000
	healthRateWindow = time.Minute
)

// Router wires handlers into a Chi mux with the middleware stack.
type Router struct {
	handler *Handler
	config  *config.Config
}

// NewRouter creates a Router around the given handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, config: cfg}
}

// Setup builds the full HTTP handler. API routes live under /api/v1; the
// Prometheus scrape endpoint is served at /metrics outside the API tree so
// it bypasses the envelope, rate limiting, and CORS handling.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.corsHandler())

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(healthRateLimit, healthRateWindow))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rateLimit())
		r.Use(middleware.PrometheusMetrics)

		r.Route("/metrics", func(r chi.Router) {
			r.Post("/", rt.handler.CreateMetric)
			r.Get("/", rt.handler.ListMetrics)
			r.Get("/aggregate", rt.handler.AggregateMetrics)
			r.Get("/timeseries", rt.handler.MetricTimeSeries)
			r.Get("/{id}", rt.handler.GetMetric)
			r.Delete("/{id}", rt.handler.DeleteMetric)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Post("/predictions", rt.handler.AnalyticsPredictions)
			r.Post("/forecasts", rt.handler.AnalyticsForecasts)
			r.Post("/comparisons", rt.handler.AnalyticsComparisons)
			r.Post("/calculate", rt.handler.AnalyticsCalculate)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", rt.handler.CreateGoal)
			r.Get("/", rt.handler.ListGoals)
			r.Get("/forecasts/all", rt.handler.GoalForecasts)
			r.Get("/{id}", rt.handler.GetGoal)
			r.Put("/{id}", rt.handler.UpdateGoal)
			r.Delete("/{id}", rt.handler.DeleteGoal)
			r.Post("/{id}/progress", rt.handler.UpdateGoalProgress)
			r.Get("/{id}/progress", rt.handler.GetGoalProgress)
		})

		r.Route("/sync", func(r chi.Router) {
			r.Post("/trigger", rt.handler.TriggerSync)
			r.Get("/runs", rt.handler.SyncRuns)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/aggregations.xlsx", rt.handler.AggregationReport)
			r.Get("/goals.xlsx", rt.handler.GoalsReport)
		})
	})

	return r
}

// corsHandler builds the CORS middleware from configured origins. With no
// configured origins all cross-origin requests are refused.
func (rt *Router) corsHandler() func(http.Handler) http.Handler {
	var origins []string
	if rt.config != nil {
		origins = rt.config.Security.CORSOrigins
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	})
}

// rateLimit builds the IP-keyed limiter for data endpoints. Limit hits
// are counted per endpoint and answered in the standard error envelope.
func (rt *Router) rateLimit() func(http.Handler) http.Handler {
	requests, window := 100, time.Minute
	if rt.config != nil {
		if rt.config.Security.RateLimitDisabled {
			return func(next http.Handler) http.Handler { return next }
		}
		if rt.config.Security.RateLimitReqs > 0 {
			requests = rt.config.Security.RateLimitReqs
		}
		if rt.config.Security.RateLimitWindow > 0 {
			window = rt.config.Security.RateLimitWindow
		}
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests", nil)
		}),
	)
}
