// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/curatarr/internal/config"
)

// NewRouter assembles the chi routing tree: global request-ID, real-IP,
// recovery, and CORS middleware, then rate-limited and instrumented API
// routes plus the Prometheus scrape endpoint.
func NewRouter(cfg *config.Config, handler *Handler) http.Handler {
	mw := NewMiddleware(MiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		RateLimitRequests:  cfg.API.RateLimitRequests,
		RateLimitWindow:    cfg.API.RateLimitWindow,
	})

	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", handler.Health)
		r.Get("/live", handler.HealthLive)
		r.Get("/ready", handler.HealthReady)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(PrometheusMetrics)

		r.Get("/suggestions", handler.Suggestions)
		r.Post("/suggestions/decisions", handler.Decisions)
		r.Post("/suggestions/apply", handler.Apply)

		r.Get("/rejected", handler.Rejected)
		r.Delete("/rejected/{id}", handler.DeleteRejected)
		r.Post("/rejected/reset", handler.ResetRejected)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
