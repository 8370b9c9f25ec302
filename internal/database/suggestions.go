// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/curatarr/internal/models"
)

// suggestionColumns is the canonical select list; scanSuggestion must stay
// in sync with it.
const suggestionColumns = `id, library_section_key, media_type, external_id, title, year,
	status, download_approval, prior_approval, points, vote_average, vote_count,
	sent_to_backend_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSuggestion(row rowScanner) (*models.Suggestion, error) {
	var (
		s         models.Suggestion
		prior     sql.NullString
		voteAvg   sql.NullFloat64
		voteCount sql.NullInt64
		sentAt    sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.LibrarySectionKey, &s.MediaType, &s.ExternalID, &s.Title, &s.Year,
		&s.Status, &s.DownloadApproval, &prior, &s.Points, &voteAvg, &voteCount,
		&sentAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if prior.Valid {
		p := models.DownloadApproval(prior.String)
		s.PriorApproval = &p
	}
	if voteAvg.Valid {
		s.VoteAverage = &voteAvg.Float64
	}
	if voteCount.Valid {
		vc := int(voteCount.Int64)
		s.VoteCount = &vc
	}
	if sentAt.Valid {
		t := sentAt.Time
		s.SentToBackendAt = &t
	}
	return &s, nil
}

// UpsertSuggestion inserts a new suggestion row or refreshes the mutable
// candidate fields (title, year, points, rating data) of an existing one.
// Lifecycle fields (status, download_approval, sent_to_backend_at) are never
// touched on conflict: a candidate-generation refresh must not reset
// decisions already recorded against the row. The row's ID is populated on
// return.
func (db *DB) UpsertSuggestion(ctx context.Context, s *models.Suggestion) error {
	query := `INSERT INTO suggestions (
			library_section_key, media_type, external_id, title, year,
			status, download_approval, points, vote_average, vote_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (library_section_key, media_type, external_id) DO UPDATE SET
			title = excluded.title,
			year = excluded.year,
			points = excluded.points,
			vote_average = excluded.vote_average,
			vote_count = excluded.vote_count,
			updated_at = now()
		RETURNING id`

	if s.Status == "" {
		s.Status = models.StatusPending
	}
	if s.DownloadApproval == "" {
		s.DownloadApproval = models.ApprovalNone
	}

	var voteAvg interface{}
	if s.VoteAverage != nil {
		voteAvg = *s.VoteAverage
	}
	var voteCount interface{}
	if s.VoteCount != nil {
		voteCount = *s.VoteCount
	}

	err := db.conn.QueryRowContext(ctx, query,
		s.LibrarySectionKey, s.MediaType, s.ExternalID, s.Title, s.Year,
		s.Status, s.DownloadApproval, s.Points, voteAvg, voteCount,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert suggestion: %w", err)
	}
	return nil
}

// GetSuggestion fetches one row by id, returning ErrNotFound when absent.
func (db *DB) GetSuggestion(ctx context.Context, id int64) (*models.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions WHERE id = ?`
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, err
	}

	s, err := scanSuggestion(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get suggestion %d: %w", id, err)
	}
	return s, nil
}

// ListSuggestions returns rows for one dataset filtered by list mode:
// pendingApproval returns only rows awaiting a decision, review returns
// every row. Results are ordered by points descending so the freshest
// candidates surface first, with id as the tiebreaker.
func (db *DB) ListSuggestions(ctx context.Context, sectionKey string, mediaType models.MediaType, mode models.SuggestionListMode, limit int) ([]models.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions
		WHERE library_section_key = ? AND media_type = ?`
	args := []interface{}{sectionKey, mediaType}

	if mode == models.ModePendingApproval {
		query += ` AND download_approval = ?`
		args = append(args, models.ApprovalPending)
	}
	query += ` ORDER BY points DESC, id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return db.querySuggestions(ctx, query, args...)
}

// ListByApproval returns dataset rows with the given approval state in
// insertion order. The limit is the bounded-read safety cap used by the
// reconciler; 0 means no limit.
func (db *DB) ListByApproval(ctx context.Context, sectionKey string, mediaType models.MediaType, approval models.DownloadApproval, limit int) ([]models.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions
		WHERE library_section_key = ? AND media_type = ? AND download_approval = ?
		ORDER BY id ASC`
	args := []interface{}{sectionKey, mediaType, approval}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return db.querySuggestions(ctx, query, args...)
}

// ListActive returns the dataset's active rows at or above the minimum
// points threshold; these are the collection-eligible rows.
func (db *DB) ListActive(ctx context.Context, sectionKey string, mediaType models.MediaType, minPoints int) ([]models.Suggestion, error) {
	query := `SELECT ` + suggestionColumns + ` FROM suggestions
		WHERE library_section_key = ? AND media_type = ? AND status = ? AND points >= ?
		ORDER BY points DESC, id ASC`
	return db.querySuggestions(ctx, query, sectionKey, mediaType, models.StatusActive, minPoints)
}

func (db *DB) querySuggestions(ctx context.Context, query string, args ...interface{}) ([]models.Suggestion, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer closeWithLog(rows, "suggestions result set")

	var out []models.Suggestion
	for rows.Next() {
		s, err := scanSuggestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// UpdateApproval moves a row to a new approval state, capturing the previous
// state in prior_approval in the same statement so undo can restore it.
// Returns ErrNotFound when the row no longer exists.
func (db *DB) UpdateApproval(ctx context.Context, id int64, approval models.DownloadApproval) error {
	query := `UPDATE suggestions SET
			prior_approval = download_approval,
			download_approval = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := db.conn.ExecContext(ctx, query, approval, id)
	if err != nil {
		return fmt.Errorf("failed to update approval for suggestion %d: %w", id, err)
	}
	return requireRow(res)
}

// MarkSent stamps sent_to_backend_at and closes the row's approval cycle by
// resetting download_approval to none. The sent_to_backend_at IS NULL guard
// makes the stamp a one-shot: a row already sent returns ErrNotFound and is
// never sent twice.
func (db *DB) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `UPDATE suggestions SET
			sent_to_backend_at = ?,
			prior_approval = download_approval,
			download_approval = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND sent_to_backend_at IS NULL`

	res, err := db.conn.ExecContext(ctx, query, sentAt, models.ApprovalNone, id)
	if err != nil {
		return fmt.Errorf("failed to mark suggestion %d sent: %w", id, err)
	}
	return requireRow(res)
}

// SetStatus flips a row's library-presence status. The external refresher
// uses this to mark rows active once the title appears on the media server.
func (db *DB) SetStatus(ctx context.Context, id int64, status models.SuggestionStatus) error {
	query := `UPDATE suggestions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := db.conn.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to set status for suggestion %d: %w", id, err)
	}
	return requireRow(res)
}

// DeleteRejectedRows removes every row in the dataset whose approval is
// rejected, returning the number of rows removed. The reconciler calls this
// unconditionally after the unmonitor phase.
func (db *DB) DeleteRejectedRows(ctx context.Context, sectionKey string, mediaType models.MediaType) (int64, error) {
	query := `DELETE FROM suggestions
		WHERE library_section_key = ? AND media_type = ? AND download_approval = ?`

	res, err := db.conn.ExecContext(ctx, query, sectionKey, mediaType, models.ApprovalRejected)
	if err != nil {
		return 0, fmt.Errorf("failed to delete rejected suggestions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted suggestions: %w", err)
	}
	return n, nil
}

// requireRow converts a zero-rows-affected update into ErrNotFound.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
