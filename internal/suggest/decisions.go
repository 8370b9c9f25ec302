// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/curatarr/internal/database"
	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/metrics"
	"github.com/tomtom215/curatarr/internal/models"
)

// RecordDecisions applies a batch of user decisions to one dataset. Every
// entry resolves to either applied or ignored; a malformed id, an unknown
// action, a row outside the dataset, or a per-item store error counts the
// entry ignored and never aborts the batch. Applied + Ignored always equals
// the batch length.
func (e *Engine) RecordDecisions(ctx context.Context, userID, sectionKey string, mediaType models.MediaType, decisions []models.Decision) (*models.DecisionResult, error) {
	if !mediaType.Valid() {
		return nil, ErrUnsupportedMediaType
	}
	if sectionKey == "" {
		return nil, fmt.Errorf("library section key is required")
	}

	result := &models.DecisionResult{OK: true}

	for _, d := range decisions {
		applied, err := e.applyDecision(ctx, userID, sectionKey, mediaType, d)
		if err != nil {
			logging.Warn().
				Err(err).
				Int64("suggestion_id", d.ID).
				Str("action", string(d.Action)).
				Msg("Decision ignored")
			applied = false
		}
		if applied {
			result.Applied++
		} else {
			result.Ignored++
		}
		metrics.RecordDecision(string(d.Action), applied)
	}

	return result, nil
}

// applyDecision processes one decision. The boolean reports applied vs
// ignored for entries that resolve cleanly; a returned error also counts as
// ignored.
func (e *Engine) applyDecision(ctx context.Context, userID, sectionKey string, mediaType models.MediaType, d models.Decision) (bool, error) {
	if d.ID <= 0 || !d.Action.Valid() {
		return false, nil
	}

	row, err := e.db.GetSuggestion(ctx, d.ID)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load suggestion: %w", err)
	}
	if row.LibrarySectionKey != sectionKey || row.MediaType != mediaType {
		return false, nil
	}

	switch d.Action {
	case models.ActionApprove:
		return e.decideApprove(ctx, userID, row)
	case models.ActionReject, models.ActionRemove:
		return e.decideReject(ctx, userID, row, d.Action)
	case models.ActionKeep:
		return true, nil
	case models.ActionUndo:
		return e.decideUndo(ctx, userID, row)
	}
	return false, nil
}

func (e *Engine) decideApprove(ctx context.Context, userID string, row *models.Suggestion) (bool, error) {
	if err := e.db.UpdateApproval(ctx, row.ID, models.ApprovalApproved); err != nil {
		return false, fmt.Errorf("record approval: %w", err)
	}
	// Approving clears any earlier rejection of the same title so it can be
	// suggested again in other datasets.
	if err := e.db.DeleteRejectedEntry(ctx, userID, row.MediaType, row.MediaType.ExternalSource(), row.ExternalID); err != nil {
		return false, fmt.Errorf("clear rejection ledger: %w", err)
	}
	return true, nil
}

func (e *Engine) decideReject(ctx context.Context, userID string, row *models.Suggestion, action models.DecisionAction) (bool, error) {
	if err := e.db.UpdateApproval(ctx, row.ID, models.ApprovalRejected); err != nil {
		return false, fmt.Errorf("record rejection: %w", err)
	}

	reason := models.ReasonReject
	if action == models.ActionRemove {
		reason = models.ReasonRemove
	}
	entry := &models.RejectedTitle{
		UserID:         userID,
		MediaType:      row.MediaType,
		ExternalSource: row.MediaType.ExternalSource(),
		ExternalID:     row.ExternalID,
		Title:          row.Title,
		Source:         "suggestions",
		Reason:         reason,
	}
	if err := e.db.UpsertRejectedTitle(ctx, entry); err != nil {
		return false, fmt.Errorf("record rejection ledger: %w", err)
	}
	return true, nil
}

// decideUndo reverses the most recent approve or reject. A row whose
// approval is already pending or none has nothing to reverse; the entry
// still counts as applied so repeating an undo stays idempotent.
func (e *Engine) decideUndo(ctx context.Context, userID string, row *models.Suggestion) (bool, error) {
	if row.DownloadApproval != models.ApprovalApproved && row.DownloadApproval != models.ApprovalRejected {
		return true, nil
	}

	target := e.undoTarget(row)
	if err := e.db.UpdateApproval(ctx, row.ID, target); err != nil {
		return false, fmt.Errorf("restore approval: %w", err)
	}

	if row.DownloadApproval == models.ApprovalRejected {
		if err := e.db.DeleteRejectedEntry(ctx, userID, row.MediaType, row.MediaType.ExternalSource(), row.ExternalID); err != nil {
			return false, fmt.Errorf("clear rejection ledger: %w", err)
		}
	}
	return true, nil
}

// undoTarget picks the approval state an undo restores. PriorApproval is
// authoritative when recorded; rows predating it fall back to the state a
// fresh row would hold given its library status.
func (e *Engine) undoTarget(row *models.Suggestion) models.DownloadApproval {
	if row.PriorApproval != nil {
		return *row.PriorApproval
	}
	if row.Status == models.StatusPending && e.approvalRequired(row.MediaType) {
		return models.ApprovalPending
	}
	return models.ApprovalNone
}
