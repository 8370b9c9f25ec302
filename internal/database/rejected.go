// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/curatarr/internal/models"
)

// UpsertRejectedTitle records a rejection in the ledger. A repeat rejection
// of the same title by the same user updates the existing entry in place
// (reason and source may change), preserving the at-most-one-entry invariant
// per (user, media type, source, external id).
func (db *DB) UpsertRejectedTitle(ctx context.Context, r *models.RejectedTitle) error {
	query := `INSERT INTO rejected_titles (
			user_id, media_type, external_source, external_id, title, source, reason
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, media_type, external_source, external_id) DO UPDATE SET
			title = excluded.title,
			source = excluded.source,
			reason = excluded.reason,
			updated_at = now()
		RETURNING id`

	err := db.conn.QueryRowContext(ctx, query,
		r.UserID, r.MediaType, r.ExternalSource, r.ExternalID, r.Title, r.Source, r.Reason,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert rejected title: %w", err)
	}
	return nil
}

// DeleteRejectedEntry removes the ledger entry for one title, if present.
// Approve and undo-from-rejected call this; a missing entry is not an error.
func (db *DB) DeleteRejectedEntry(ctx context.Context, userID string, mediaType models.MediaType, externalSource string, externalID int64) error {
	query := `DELETE FROM rejected_titles
		WHERE user_id = ? AND media_type = ? AND external_source = ? AND external_id = ?`

	if _, err := db.conn.ExecContext(ctx, query, userID, mediaType, externalSource, externalID); err != nil {
		return fmt.Errorf("failed to delete rejected entry: %w", err)
	}
	return nil
}

// DeleteRejectedByID removes one ledger entry by its row id, scoped to the
// owning user. Returns ErrNotFound when the entry does not exist or belongs
// to a different user.
func (db *DB) DeleteRejectedByID(ctx context.Context, userID string, id int64) error {
	query := `DELETE FROM rejected_titles WHERE id = ? AND user_id = ?`
	res, err := db.conn.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete rejected title %d: %w", id, err)
	}
	return requireRow(res)
}

// ResetRejected clears a user's entire ledger, returning the number of
// entries removed.
func (db *DB) ResetRejected(ctx context.Context, userID string) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM rejected_titles WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset rejected titles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count reset rejected titles: %w", err)
	}
	return n, nil
}

// ListRejected returns a user's ledger entries, newest first.
func (db *DB) ListRejected(ctx context.Context, userID string) ([]models.RejectedTitle, error) {
	query := `SELECT id, user_id, media_type, external_source, external_id,
			title, source, reason, created_at, updated_at
		FROM rejected_titles WHERE user_id = ? ORDER BY updated_at DESC, id DESC`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rejected titles: %w", err)
	}
	defer closeWithLog(rows, "rejected titles result set")

	var out []models.RejectedTitle
	for rows.Next() {
		var r models.RejectedTitle
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.MediaType, &r.ExternalSource, &r.ExternalID,
			&r.Title, &r.Source, &r.Reason, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rejected title: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
