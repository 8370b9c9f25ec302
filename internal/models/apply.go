// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package models

// ApplyRequest names the dataset one reconciliation pass operates on.
type ApplyRequest struct {
	LibrarySectionKey string    `json:"library_section_key"`
	MediaType         MediaType `json:"media_type"`
}

// ApplyFailure records one per-item failure swallowed during a
// reconciliation pass. The pass continues past failures; this report is how
// they surface instead of being silently dropped.
type ApplyFailure struct {
	Phase      string `json:"phase"` // unmonitor | add
	ExternalID int64  `json:"external_id"`
	Title      string `json:"title,omitempty"`
	Error      string `json:"error"`
}

// ApplyResult is the structured report of one reconciliation pass.
//
// Enabled reflects whether the download backend integration was active for
// the pass; Sent counts successful add-and-search requests; Unmonitored
// counts successful unmonitor calls; DatasetRemoved counts rejected rows
// deleted from the suggestion store. Collection is nil when the library had
// no eligible rows to publish.
type ApplyResult struct {
	Enabled        bool                     `json:"enabled"`
	Sent           int                      `json:"sent"`
	Unmonitored    int                      `json:"unmonitored"`
	DatasetRemoved int                      `json:"dataset_removed"`
	Collection     *CollectionRebuildResult `json:"collection,omitempty"`
	Failures       []ApplyFailure           `json:"failures,omitempty"`
}

// CollectionRebuildResult reports what a full collection recreate changed
// relative to the previously published collection.
type CollectionRebuildResult struct {
	Name    string `json:"name"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
	Moved   int    `json:"moved"`
	Skipped int    `json:"skipped"`
}
