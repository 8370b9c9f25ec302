// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package models

// Plex Media Server REST API response models.
//
// These structures represent responses from the Plex endpoints Curatarr
// consumes. All requests send Accept: application/json so Plex returns JSON
// instead of its default XML.

// ============================================================================
// Server Identity - GET /identity
// ============================================================================

// PlexIdentityResponse represents the response from GET /identity.
type PlexIdentityResponse struct {
	MediaContainer PlexIdentityContainer `json:"MediaContainer"`
}

// PlexIdentityContainer carries the server's stable machine identifier,
// which anchors collection publishing to a specific server.
type PlexIdentityContainer struct {
	Size              int    `json:"size"`
	MachineIdentifier string `json:"machineIdentifier"`
	Version           string `json:"version,omitempty"`
}

// ============================================================================
// Library Sections - GET /library/sections
// ============================================================================

// PlexLibrarySectionsResponse represents the response from GET /library/sections.
type PlexLibrarySectionsResponse struct {
	MediaContainer PlexLibrarySectionsContainer `json:"MediaContainer"`
}

// PlexLibrarySectionsContainer wraps the list of library sections.
type PlexLibrarySectionsContainer struct {
	Size      int                  `json:"size"`
	Title1    string               `json:"title1,omitempty"`
	Directory []PlexLibrarySection `json:"Directory,omitempty"`
}

// PlexLibrarySection represents a single library section (Movies, TV Shows, etc.)
type PlexLibrarySection struct {
	Key      string `json:"key"`   // Section key, used in /library/sections/{key} paths
	UUID     string `json:"uuid"`  // Unique section UUID
	Title    string `json:"title"` // Section name (e.g., "Movies")
	Type     string `json:"type"`  // Section type: "movie", "show", "artist", "photo"
	Agent    string `json:"agent,omitempty"`
	Scanner  string `json:"scanner,omitempty"`
	Language string `json:"language,omitempty"`
}

// ============================================================================
// Library Section Content - GET /library/sections/{key}/all
// ============================================================================

// PlexLibraryItemsResponse represents the response from GET /library/sections/{key}/all.
type PlexLibraryItemsResponse struct {
	MediaContainer PlexLibraryItemsContainer `json:"MediaContainer"`
}

// PlexLibraryItemsContainer wraps library content items.
type PlexLibraryItemsContainer struct {
	Size                int               `json:"size"`
	TotalSize           int               `json:"totalSize,omitempty"`
	Offset              int               `json:"offset,omitempty"`
	LibrarySectionID    int               `json:"librarySectionID,omitempty"`
	LibrarySectionTitle string            `json:"librarySectionTitle,omitempty"`
	Metadata            []PlexLibraryItem `json:"Metadata,omitempty"`
}

// PlexLibraryItem represents a movie or show in a library section.
//
// The top-level GUID field carries the primary agent identifier; the Guid
// list carries one entry per external metadata namespace, formatted as
// "tmdb://550", "tvdb://81189", or "imdb://tt0137523".
type PlexLibraryItem struct {
	RatingKey   string     `json:"ratingKey"` // Unique item identifier, used for collection membership
	Key         string     `json:"key"`
	GUID        string     `json:"guid,omitempty"`
	Type        string     `json:"type"` // movie | show
	Title       string     `json:"title"`
	Year        int        `json:"year,omitempty"`
	Rating      float64    `json:"rating,omitempty"`
	AudienceRtg float64    `json:"audienceRating,omitempty"`
	AddedAt     int64      `json:"addedAt,omitempty"`
	UpdatedAt   int64      `json:"updatedAt,omitempty"`
	Guid        []PlexGUID `json:"Guid,omitempty"`
}

// PlexGUID is one external identifier attached to a library item.
type PlexGUID struct {
	ID string `json:"id"` // e.g. "tmdb://550"
}

// ============================================================================
// Collections - GET /library/sections/{key}/collections
// ============================================================================

// PlexCollectionsResponse represents the response from
// GET /library/sections/{key}/collections.
type PlexCollectionsResponse struct {
	MediaContainer PlexCollectionsContainer `json:"MediaContainer"`
}

// PlexCollectionsContainer wraps the list of collections in a section.
type PlexCollectionsContainer struct {
	Size     int              `json:"size"`
	Metadata []PlexCollection `json:"Metadata,omitempty"`
}

// PlexCollection represents one collection in a library section.
type PlexCollection struct {
	RatingKey  string `json:"ratingKey"`
	Key        string `json:"key"`
	Title      string `json:"title"`
	Subtype    string `json:"subtype,omitempty"` // movie | show
	ChildCount string `json:"childCount,omitempty"`
}

// PlexCollectionItemsResponse represents the response from
// GET /library/collections/{ratingKey}/children.
type PlexCollectionItemsResponse struct {
	MediaContainer PlexLibraryItemsContainer `json:"MediaContainer"`
}
