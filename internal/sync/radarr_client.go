// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package sync

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/models"
)

// RadarrClient implements Backend against the Radarr v3 API. Movie identity
// is the TMDB id.
type RadarrClient struct {
	*arrClient
}

// NewRadarrClient creates a Radarr client from config.
func NewRadarrClient(cfg *config.BackendConfig) *RadarrClient {
	return &RadarrClient{arrClient: newArrClient("radarr", cfg)}
}

// radarrMovie is the subset of Radarr's movie resource Curatarr touches.
type radarrMovie struct {
	ID               int64             `json:"id,omitempty"`
	Title            string            `json:"title"`
	TmdbID           int64             `json:"tmdbId"`
	Year             int               `json:"year,omitempty"`
	Monitored        bool              `json:"monitored"`
	QualityProfileID int64             `json:"qualityProfileId,omitempty"`
	RootFolderPath   string            `json:"rootFolderPath,omitempty"`
	Tags             []int64           `json:"tags,omitempty"`
	AddOptions       *radarrAddOptions `json:"addOptions,omitempty"`
}

type radarrAddOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

// radarrEditorPayload drives the bulk editor endpoint; Curatarr only ever
// edits one movie at a time.
type radarrEditorPayload struct {
	MovieIDs  []int64 `json:"movieIds"`
	Monitored bool    `json:"monitored"`
}

func (c *RadarrClient) Name() string { return "radarr" }

// ListCatalog fetches Radarr's full movie list.
func (c *RadarrClient) ListCatalog(ctx context.Context) ([]models.BackendItem, error) {
	var movies []radarrMovie
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/movie", nil, &movies); err != nil {
		return nil, fmt.Errorf("radarr list catalog: %w", err)
	}

	items := make([]models.BackendItem, 0, len(movies))
	for _, m := range movies {
		items = append(items, models.BackendItem{
			ID:         m.ID,
			Title:      m.Title,
			ExternalID: m.TmdbID,
			Year:       m.Year,
			Monitored:  m.Monitored,
		})
	}
	return items, nil
}

// AddItem adds one movie with an immediate search.
func (c *RadarrClient) AddItem(ctx context.Context, req models.BackendAddRequest) (*models.BackendItem, error) {
	payload := radarrMovie{
		Title:            req.Title,
		TmdbID:           req.ExternalID,
		Year:             req.Year,
		Monitored:        req.Monitored,
		QualityProfileID: req.QualityProfileID,
		RootFolderPath:   req.RootFolderPath,
		Tags:             req.TagIDs,
		AddOptions: &radarrAddOptions{
			SearchForMovie: req.SearchNow,
		},
	}

	var created radarrMovie
	if err := c.doJSON(ctx, http.MethodPost, "/api/v3/movie", payload, &created); err != nil {
		return nil, fmt.Errorf("radarr add movie %q: %w", req.Title, err)
	}
	return &models.BackendItem{
		ID:         created.ID,
		Title:      created.Title,
		ExternalID: created.TmdbID,
		Year:       created.Year,
		Monitored:  created.Monitored,
	}, nil
}

// SetMonitored flips the monitored flag on one movie through the bulk
// editor endpoint, which avoids round-tripping the full movie resource.
func (c *RadarrClient) SetMonitored(ctx context.Context, id int64, monitored bool) error {
	payload := radarrEditorPayload{
		MovieIDs:  []int64{id},
		Monitored: monitored,
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v3/movie/editor", payload, nil); err != nil {
		return fmt.Errorf("radarr set monitored for movie %d: %w", id, err)
	}
	return nil
}

func (c *RadarrClient) ListRootFolders(ctx context.Context) ([]models.BackendRootFolder, error) {
	return c.listRootFolders(ctx)
}

func (c *RadarrClient) ListQualityProfiles(ctx context.Context) ([]models.BackendQualityProfile, error) {
	return c.listQualityProfiles(ctx)
}

func (c *RadarrClient) ListTags(ctx context.Context) ([]models.BackendTag, error) {
	var tags []models.BackendTag
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/tag", nil, &tags); err != nil {
		return nil, fmt.Errorf("radarr list tags: %w", err)
	}
	return tags, nil
}

func (c *RadarrClient) EnsureTag(ctx context.Context, label string) (*models.BackendTag, error) {
	return c.ensureTag(ctx, label)
}
