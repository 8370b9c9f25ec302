// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package models

import (
	"time"
)

// MediaType identifies which kind of title a dataset tracks. Movies
// reconcile against Radarr and carry TMDB external ids; shows reconcile
// against Sonarr and carry TVDB external ids.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// Valid reports whether the media type is one of the two supported kinds.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeShow
}

// ExternalSource returns the metadata namespace the media type's external
// ids live in.
func (m MediaType) ExternalSource() string {
	if m == MediaTypeShow {
		return "tvdb"
	}
	return "tmdb"
}

// SuggestionStatus tracks whether a suggested title has been observed in the
// Plex library yet.
type SuggestionStatus string

const (
	// StatusPending means the title is not yet present on the media server.
	StatusPending SuggestionStatus = "pending"
	// StatusActive means the title was observed in the library and is
	// eligible for collection membership.
	StatusActive SuggestionStatus = "active"
)

// DownloadApproval is the per-row gate controlling whether the reconciler
// forwards a title to a download backend.
type DownloadApproval string

const (
	// ApprovalNone means no approval workflow applies to the row, either
	// because approval is not required for the dataset or because the
	// approval cycle already completed.
	ApprovalNone DownloadApproval = "none"
	// ApprovalPending means the row is waiting on a user decision.
	ApprovalPending DownloadApproval = "pending"
	// ApprovalApproved marks a user approval awaiting reconciliation.
	ApprovalApproved DownloadApproval = "approved"
	// ApprovalRejected marks a user rejection awaiting reconciliation.
	ApprovalRejected DownloadApproval = "rejected"
)

// Suggestion is one candidate title tracked for a specific library section
// and media kind. Rows are unique per (librarySectionKey, mediaType,
// externalId).
//
// PriorApproval records the downloadApproval value the row held immediately
// before the most recent decision was applied. Undo restores from it instead
// of re-deriving the target state from Status, so an undo after an
// intervening status flip still lands on the state the user actually left.
//
// SentToBackendAt is set exactly once, when the reconciler issues the add
// request for the row; it gates against duplicate sends across repeated
// reconciliation passes.
type Suggestion struct {
	ID                int64             `json:"id"`
	LibrarySectionKey string            `json:"library_section_key"`
	MediaType         MediaType         `json:"media_type"`
	ExternalID        int64             `json:"external_id"`
	Title             string            `json:"title"`
	Year              int               `json:"year,omitempty"`
	Status            SuggestionStatus  `json:"status"`
	DownloadApproval  DownloadApproval  `json:"download_approval"`
	PriorApproval     *DownloadApproval `json:"prior_approval,omitempty"`
	Points            int               `json:"points"`
	VoteAverage       *float64          `json:"vote_average,omitempty"`
	VoteCount         *int              `json:"vote_count,omitempty"`
	SentToBackendAt   *time.Time        `json:"sent_to_backend_at,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

// SuggestionListMode selects which rows listSuggestions returns.
type SuggestionListMode string

const (
	// ModePendingApproval filters to rows awaiting a user decision.
	ModePendingApproval SuggestionListMode = "pendingApproval"
	// ModeReview returns browsable rows regardless of approval state.
	ModeReview SuggestionListMode = "review"
)

// Valid reports whether the list mode is recognized.
func (m SuggestionListMode) Valid() bool {
	return m == ModePendingApproval || m == ModeReview
}
