// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package models

// Radarr/Sonarr v3 API resource models.
//
// The two backends share the shape of their supporting resources (root
// folders, quality profiles, tags) and differ only in the catalog item
// payload, so the catalog item is normalized into BackendItem and the raw
// wire structs stay private to the client package where possible.

// BackendItem is a normalized catalog entry from a download backend. For
// Radarr the external id is the TMDB id; for Sonarr it is the TVDB id.
type BackendItem struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	ExternalID int64  `json:"external_id"`
	Year       int    `json:"year,omitempty"`
	Monitored  bool   `json:"monitored"`
}

// BackendRootFolder represents one configured root folder on a backend.
type BackendRootFolder struct {
	ID         int64  `json:"id"`
	Path       string `json:"path"`
	Accessible bool   `json:"accessible,omitempty"`
}

// BackendQualityProfile represents one quality profile on a backend.
type BackendQualityProfile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BackendTag represents one tag on a backend.
type BackendTag struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// BackendAddRequest carries everything needed to add one title to a backend
// with an immediate search.
type BackendAddRequest struct {
	Title            string
	ExternalID       int64
	Year             int
	QualityProfileID int64
	RootFolderPath   string
	TagIDs           []int64
	Monitored        bool
	SearchNow        bool
}

// BackendDefaults holds the resolved root folder, quality profile, and
// optional tag a reconciliation pass uses for every add request. Resolution
// prefers configured values and falls back to the backend's first available
// option.
type BackendDefaults struct {
	RootFolderPath   string
	QualityProfileID int64
	TagID            *int64
}
