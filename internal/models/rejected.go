// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package models

import (
	"time"
)

// RejectReason distinguishes an explicit rejection from a removal of an
// already-present title.
type RejectReason string

const (
	ReasonReject RejectReason = "reject"
	ReasonRemove RejectReason = "remove"
)

// RejectedTitle is one ledger entry recording that a user never wants a
// title suggested again. Entries are unique per (userID, mediaType,
// externalSource, externalID) regardless of how many suggestion datasets
// reference the title. The ledger is owned per-user and outlives any one
// dataset's rows.
type RejectedTitle struct {
	ID             int64        `json:"id"`
	UserID         string       `json:"user_id"`
	MediaType      MediaType    `json:"media_type"`
	ExternalSource string       `json:"external_source"` // tmdb | tvdb
	ExternalID     int64        `json:"external_id"`
	Title          string       `json:"title"`
	Source         string       `json:"source"` // subsystem that produced the rejection
	Reason         RejectReason `json:"reason"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}
