// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/curatarr/internal/database"
	"github.com/tomtom215/curatarr/internal/models"
)

// Rejected handles GET /api/v1/rejected: the acting user's rejected-title
// ledger, newest first.
func (h *Handler) Rejected(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	entries, err := h.service.ListRejected(r.Context(), userID(r))
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if entries == nil {
		entries = []models.RejectedTitle{}
	}

	rw.Success(map[string]interface{}{
		"rejected": entries,
		"count":    len(entries),
	})
}

// DeleteRejected handles DELETE /api/v1/rejected/{id}. The entry must belong
// to the acting user.
func (h *Handler) DeleteRejected(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		rw.ValidationError("id must be a positive integer", nil)
		return
	}

	if err := h.service.DeleteRejected(r.Context(), userID(r), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			rw.NotFound("rejected entry not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{"deleted": id})
}

// ResetRejected handles POST /api/v1/rejected/reset: clears the acting
// user's entire ledger.
func (h *Handler) ResetRejected(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	removed, err := h.service.ResetRejected(r.Context(), userID(r))
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(map[string]interface{}{"removed": removed})
}
