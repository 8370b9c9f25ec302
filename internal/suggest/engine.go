// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

// Package suggest implements the suggestion lifecycle: recording user
// decisions on suggested titles, reconciling those decisions against the
// download backends, and rebuilding the curated Plex collections.
package suggest

import (
	"context"
	"math/rand"
	"time"

	"github.com/tomtom215/curatarr/internal/cache"
	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/database"
	"github.com/tomtom215/curatarr/internal/models"
	syncer "github.com/tomtom215/curatarr/internal/sync"
)

// MediaServer is the subset of the Plex client the engine depends on.
// *sync.PlexClient satisfies it; tests substitute a fake.
type MediaServer interface {
	GetMachineIdentifier(ctx context.Context) (string, error)
	GetSectionItems(ctx context.Context, sectionKey string) ([]models.PlexLibraryItem, error)
	GetCollections(ctx context.Context, sectionKey string) ([]models.PlexCollection, error)
	GetCollectionItems(ctx context.Context, collectionRatingKey string) ([]models.PlexLibraryItem, error)
	CreateCollection(ctx context.Context, machineID, sectionKey, title string, plexType int, ratingKeys []string) (string, error)
	DeleteCollection(ctx context.Context, collectionRatingKey string) error
}

// defaultsCacheTTL bounds how long resolved backend defaults (root folder,
// quality profile, tag id) are reused across reconciliation passes.
const defaultsCacheTTL = 10 * time.Minute

// Engine coordinates the suggestion store, the media server, and the
// download backends. All exported methods are safe for concurrent use;
// reconciliation passes are additionally serialized per dataset.
type Engine struct {
	cfg      *config.Config
	db       *database.DB
	plex     MediaServer
	backends map[models.MediaType]syncer.Backend
	orderer  *Orderer
	locks    *keyLock
	defaults *cache.Cache
}

// EngineOption customizes engine construction.
type EngineOption func(*Engine)

// WithOrderingSeed fixes the orderer's random source. Intended for tests.
func WithOrderingSeed(seed int64) EngineOption {
	return func(e *Engine) {
		e.orderer = NewOrderer(e.cfg.Suggest.Ordering, rand.New(rand.NewSource(seed))) //nolint:gosec // deterministic test ordering
	}
}

// NewEngine wires an engine from its collaborators. Backends may be nil for
// a media type whose integration is disabled; the reconciler checks the
// config flag before touching them.
func NewEngine(cfg *config.Config, db *database.DB, plex MediaServer, backends map[models.MediaType]syncer.Backend, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:      cfg,
		db:       db,
		plex:     plex,
		backends: backends,
		orderer:  NewOrderer(cfg.Suggest.Ordering, nil),
		locks:    newKeyLock(),
		defaults: cache.New(defaultsCacheTTL),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases engine-held resources.
func (e *Engine) Close() {
	e.defaults.Stop()
}

// ListSuggestions returns the dataset's rows in the given mode, capped at
// limit.
func (e *Engine) ListSuggestions(ctx context.Context, sectionKey string, mediaType models.MediaType, mode models.SuggestionListMode, limit int) ([]models.Suggestion, error) {
	if !mediaType.Valid() {
		return nil, ErrUnsupportedMediaType
	}
	return e.db.ListSuggestions(ctx, sectionKey, mediaType, mode, limit)
}

// ListRejected returns the user's rejected-title ledger, newest first.
func (e *Engine) ListRejected(ctx context.Context, userID string) ([]models.RejectedTitle, error) {
	return e.db.ListRejected(ctx, userID)
}

// DeleteRejected removes one ledger entry by id, scoped to the owning user.
func (e *Engine) DeleteRejected(ctx context.Context, userID string, id int64) error {
	return e.db.DeleteRejectedByID(ctx, userID, id)
}

// ResetRejected clears the user's whole ledger, returning the number of
// removed entries.
func (e *Engine) ResetRejected(ctx context.Context, userID string) (int64, error) {
	return e.db.ResetRejected(ctx, userID)
}

// approvalRequired reports whether the add phase applies to the media type.
func (e *Engine) approvalRequired(mediaType models.MediaType) bool {
	if mediaType == models.MediaTypeShow {
		return e.cfg.Suggest.ShowApprovalRequired
	}
	return e.cfg.Suggest.MovieApprovalRequired
}

// backendConfig returns the backend connection settings for the media type.
func (e *Engine) backendConfig(mediaType models.MediaType) config.BackendConfig {
	if mediaType == models.MediaTypeShow {
		return e.cfg.Sonarr
	}
	return e.cfg.Radarr
}

// collectionName returns the curated collection title for the media type.
func (e *Engine) collectionName(mediaType models.MediaType) string {
	if mediaType == models.MediaTypeShow {
		return e.cfg.Suggest.ShowCollectionName
	}
	return e.cfg.Suggest.MovieCollectionName
}

// minScore returns the points floor for collection membership.
func (e *Engine) minScore(mediaType models.MediaType) int {
	if mediaType == models.MediaTypeShow {
		return e.cfg.Suggest.ShowMinScore
	}
	return e.cfg.Suggest.MovieMinScore
}
