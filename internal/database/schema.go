// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package database

import (
	"fmt"
)

// createTables creates the suggestion store and rejected-title ledger.
//
// suggestions rows are unique per (library_section_key, media_type,
// external_id): one dataset per library section and media kind, one row per
// title within it. prior_approval is captured whenever a decision changes
// download_approval, so undo can restore the exact pre-decision state.
//
// rejected_titles rows are unique per (user_id, media_type, external_source,
// external_id): a title appears in at most one ledger entry per user and
// media kind no matter how many datasets reference it.
func (db *DB) createTables() error {
	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_suggestion_id START 1`,
		`CREATE TABLE IF NOT EXISTS suggestions (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_suggestion_id'),
			library_section_key VARCHAR NOT NULL,
			media_type VARCHAR NOT NULL,
			external_id BIGINT NOT NULL,
			title VARCHAR NOT NULL,
			year INTEGER NOT NULL DEFAULT 0,
			status VARCHAR NOT NULL DEFAULT 'pending',
			download_approval VARCHAR NOT NULL DEFAULT 'none',
			prior_approval VARCHAR,
			points INTEGER NOT NULL DEFAULT 0,
			vote_average DOUBLE,
			vote_count INTEGER,
			sent_to_backend_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (library_section_key, media_type, external_id)
		)`,
		`CREATE SEQUENCE IF NOT EXISTS seq_rejected_id START 1`,
		`CREATE TABLE IF NOT EXISTS rejected_titles (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_rejected_id'),
			user_id VARCHAR NOT NULL,
			media_type VARCHAR NOT NULL,
			external_source VARCHAR NOT NULL,
			external_id BIGINT NOT NULL,
			title VARCHAR NOT NULL,
			source VARCHAR NOT NULL,
			reason VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, media_type, external_source, external_id)
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// createIndexes creates secondary indexes for the dataset-scoped and
// user-scoped access paths.
func (db *DB) createIndexes() error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_suggestions_dataset
			ON suggestions (library_section_key, media_type)`,
		`CREATE INDEX IF NOT EXISTS idx_suggestions_approval
			ON suggestions (library_section_key, media_type, download_approval)`,
		`CREATE INDEX IF NOT EXISTS idx_rejected_user
			ON rejected_titles (user_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
	}
	return nil
}
