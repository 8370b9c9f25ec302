// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curatarr/internal/models"
	"github.com/tomtom215/curatarr/internal/suggest"
	"github.com/tomtom215/curatarr/internal/validation"
)

// suggestionsQuery is the validated query surface of GET /suggestions.
type suggestionsQuery struct {
	Library   string `validate:"required"`
	MediaType string `validate:"required,oneof=movie show"`
	Mode      string `validate:"required,oneof=pendingApproval review"`
	Limit     int    `validate:"min=1"`
}

// Suggestions handles GET /api/v1/suggestions. Responses carry an ETag and
// honor If-None-Match so polling clients avoid re-downloading unchanged
// datasets.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	q := suggestionsQuery{
		Library:   r.URL.Query().Get("library"),
		MediaType: r.URL.Query().Get("media_type"),
		Mode:      r.URL.Query().Get("mode"),
		Limit:     getIntParam(r, "limit", h.cfg.API.DefaultPageSize),
	}
	if q.Mode == "" {
		q.Mode = string(models.ModeReview)
	}
	if q.Limit > h.cfg.API.MaxPageSize {
		q.Limit = h.cfg.API.MaxPageSize
	}
	if verr := validation.ValidateStruct(&q); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	suggestions, err := h.service.ListSuggestions(r.Context(), q.Library, models.MediaType(q.MediaType), models.SuggestionListMode(q.Mode), q.Limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}

	payload := map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		rw.InternalError("Failed to encode suggestions")
		return
	}
	etag := generateETag(body)
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	rw.Success(payload)
}

// Decisions handles POST /api/v1/suggestions/decisions.
func (h *Handler) Decisions(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var batch models.DecisionBatch
	if err := decodeBody(w, r, &batch); err != nil {
		rw.ValidationError("Invalid request body: "+err.Error(), nil)
		return
	}

	req := struct {
		LibrarySectionKey string `validate:"required"`
		MediaType         string `validate:"required,oneof=movie show"`
	}{
		LibrarySectionKey: batch.LibrarySectionKey,
		MediaType:         string(batch.MediaType),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	result, err := h.service.RecordDecisions(r.Context(), userID(r), batch.LibrarySectionKey, batch.MediaType, batch.Decisions)
	if err != nil {
		if errors.Is(err, suggest.ErrUnsupportedMediaType) {
			rw.ValidationError(err.Error(), nil)
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(result)
}

// Apply handles POST /api/v1/suggestions/apply: one full reconciliation pass
// for the named dataset.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.ApplyRequest
	if err := decodeBody(w, r, &req); err != nil {
		rw.ValidationError("Invalid request body: "+err.Error(), nil)
		return
	}

	scope := struct {
		LibrarySectionKey string `validate:"required"`
		MediaType         string `validate:"required,oneof=movie show"`
	}{
		LibrarySectionKey: req.LibrarySectionKey,
		MediaType:         string(req.MediaType),
	}
	if verr := validation.ValidateStruct(&scope); verr != nil {
		rw.ValidationError(verr.Error(), verr.Details())
		return
	}

	result, err := h.service.Apply(r.Context(), req.LibrarySectionKey, req.MediaType)
	switch {
	case errors.Is(err, suggest.ErrApplyInProgress):
		rw.Conflict(err.Error())
		return
	case errors.Is(err, suggest.ErrMediaServerNotConfigured):
		rw.UpstreamError(err.Error())
		return
	case errors.Is(err, suggest.ErrUnsupportedMediaType):
		rw.ValidationError(err.Error(), nil)
		return
	case err != nil:
		rw.UpstreamError("Reconciliation failed: " + err.Error())
		return
	}

	rw.Success(result)
}
