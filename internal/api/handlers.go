// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

// Package api provides the HTTP surface: suggestion listing, decision
// recording, reconciliation, and the rejected-title ledger, all wrapped in
// the standardized APIResponse envelope and routed through chi.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/models"
)

// SuggestionService is the engine surface the handlers depend on.
// *suggest.Engine satisfies it.
type SuggestionService interface {
	ListSuggestions(ctx context.Context, sectionKey string, mediaType models.MediaType, mode models.SuggestionListMode, limit int) ([]models.Suggestion, error)
	RecordDecisions(ctx context.Context, userID, sectionKey string, mediaType models.MediaType, decisions []models.Decision) (*models.DecisionResult, error)
	Apply(ctx context.Context, sectionKey string, mediaType models.MediaType) (*models.ApplyResult, error)
	ListRejected(ctx context.Context, userID string) ([]models.RejectedTitle, error)
	DeleteRejected(ctx context.Context, userID string, id int64) error
	ResetRejected(ctx context.Context, userID string) (int64, error)
}

// Pinger reports storage liveness for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	cfg     *config.Config
	service SuggestionService
	store   Pinger
	started time.Time
}

// NewHandler creates the handler set.
func NewHandler(cfg *config.Config, service SuggestionService, store Pinger) *Handler {
	return &Handler{
		cfg:     cfg,
		service: service,
		store:   store,
		started: time.Now(),
	}
}

// Health reports overall service health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := "ok"
	checks := map[string]string{"database": "ok"}
	if err := h.store.Ping(r.Context()); err != nil {
		status = "degraded"
		checks["database"] = err.Error()
	}

	rw.Success(map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"checks":         checks,
	})
}

// HealthLive is the liveness probe: the process is serving requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// HealthReady is the readiness probe: storage must answer.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.store.Ping(r.Context()); err != nil {
		rw.Error(http.StatusServiceUnavailable, ErrCodeDatabase, "database not ready")
		return
	}
	rw.Success(map[string]string{"status": "ready"})
}
