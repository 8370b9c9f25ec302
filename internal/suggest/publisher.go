// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"context"
	"fmt"

	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/models"
)

// plexTypeMovie and plexTypeShow are the numeric library types Plex expects
// on collection creation.
const (
	plexTypeMovie = 1
	plexTypeShow  = 2
)

// publishCollection replaces the named collection in a section with the
// given ordered rating keys. Plex applies custom ordering only at creation
// time, so an existing collection is deleted and recreated rather than
// edited in place. Returns the membership delta against the previous
// collection contents.
func publishCollection(ctx context.Context, server MediaServer, machineID, sectionKey, name string, mediaType models.MediaType, ratingKeys []string, skipped int) (*models.CollectionRebuildResult, error) {
	result := &models.CollectionRebuildResult{Name: name, Skipped: skipped}

	oldKeys, err := currentCollectionKeys(ctx, server, sectionKey, name)
	if err != nil {
		return nil, err
	}

	if len(ratingKeys) == 0 {
		// Nothing to publish. Leave any existing collection untouched so a
		// transient empty candidate set does not wipe a curated collection.
		result.Skipped = skipped
		return result, nil
	}

	if oldKeys != nil {
		if err := deleteCollectionByName(ctx, server, sectionKey, name); err != nil {
			return nil, fmt.Errorf("delete collection %q: %w", name, err)
		}
	}

	plexType := plexTypeMovie
	if mediaType == models.MediaTypeShow {
		plexType = plexTypeShow
	}

	if _, err := server.CreateCollection(ctx, machineID, sectionKey, name, plexType, ratingKeys); err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	result.Added, result.Removed, result.Moved = membershipDelta(oldKeys, ratingKeys)

	logging.Info().
		Str("collection", name).
		Str("section", sectionKey).
		Int("items", len(ratingKeys)).
		Int("added", result.Added).
		Int("removed", result.Removed).
		Int("moved", result.Moved).
		Int("skipped", result.Skipped).
		Msg("Collection rebuilt")

	return result, nil
}

// currentCollectionKeys returns the ordered rating keys of the named
// collection, or nil when no collection with that title exists.
func currentCollectionKeys(ctx context.Context, server MediaServer, sectionKey, name string) ([]string, error) {
	collections, err := server.GetCollections(ctx, sectionKey)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	for _, coll := range collections {
		if coll.Title != name {
			continue
		}
		items, err := server.GetCollectionItems(ctx, coll.RatingKey)
		if err != nil {
			return nil, fmt.Errorf("list collection items: %w", err)
		}
		keys := make([]string, 0, len(items))
		for _, item := range items {
			keys = append(keys, item.RatingKey)
		}
		return keys, nil
	}
	return nil, nil
}

func deleteCollectionByName(ctx context.Context, server MediaServer, sectionKey, name string) error {
	collections, err := server.GetCollections(ctx, sectionKey)
	if err != nil {
		return err
	}
	for _, coll := range collections {
		if coll.Title == name {
			return server.DeleteCollection(ctx, coll.RatingKey)
		}
	}
	return nil
}

// membershipDelta compares the old and new ordered key lists. Added and
// removed count keys present on only one side; moved counts keys present on
// both sides whose relative rank among the common keys changed.
func membershipDelta(oldKeys, newKeys []string) (added, removed, moved int) {
	oldSet := make(map[string]struct{}, len(oldKeys))
	for _, k := range oldKeys {
		oldSet[k] = struct{}{}
	}
	newSet := make(map[string]struct{}, len(newKeys))
	for _, k := range newKeys {
		newSet[k] = struct{}{}
	}

	for _, k := range newKeys {
		if _, ok := oldSet[k]; !ok {
			added++
		}
	}
	for _, k := range oldKeys {
		if _, ok := newSet[k]; !ok {
			removed++
		}
	}

	var oldCommon, newCommon []string
	for _, k := range oldKeys {
		if _, ok := newSet[k]; ok {
			oldCommon = append(oldCommon, k)
		}
	}
	for _, k := range newKeys {
		if _, ok := oldSet[k]; ok {
			newCommon = append(newCommon, k)
		}
	}

	oldRank := make(map[string]int, len(oldCommon))
	for i, k := range oldCommon {
		oldRank[k] = i
	}
	for i, k := range newCommon {
		if oldRank[k] != i {
			moved++
		}
	}
	return added, removed, moved
}
