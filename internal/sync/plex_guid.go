// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package sync

import (
	"strconv"
	"strings"

	"github.com/tomtom215/curatarr/internal/models"
)

// ExternalID extracts the numeric external id for one metadata namespace
// ("tmdb" or "tvdb") from an item's GUID list. Plex formats entries as
// "tmdb://550"; imdb ids are alphanumeric ("imdb://tt0137523") and never
// match a numeric namespace.
func ExternalID(item *models.PlexLibraryItem, source string) (int64, bool) {
	prefix := source + "://"
	for _, g := range item.Guid {
		if !strings.HasPrefix(g.ID, prefix) {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(g.ID, prefix), 10, 64)
		if err != nil {
			continue
		}
		return id, true
	}
	return 0, false
}

// IndexByExternalID builds a lookup from external id to library item for one
// metadata namespace. Items lacking a matching GUID are skipped; when two
// items claim the same external id the first wins.
func IndexByExternalID(items []models.PlexLibraryItem, source string) map[int64]models.PlexLibraryItem {
	index := make(map[int64]models.PlexLibraryItem, len(items))
	for _, item := range items {
		id, ok := ExternalID(&item, source)
		if !ok {
			continue
		}
		if _, exists := index[id]; exists {
			continue
		}
		index[id] = item
	}
	return index
}
