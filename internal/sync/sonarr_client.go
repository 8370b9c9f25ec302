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

// SonarrClient implements Backend against the Sonarr v3 API. Series identity
// is the TVDB id.
type SonarrClient struct {
	*arrClient
}

// NewSonarrClient creates a Sonarr client from config.
func NewSonarrClient(cfg *config.BackendConfig) *SonarrClient {
	return &SonarrClient{arrClient: newArrClient("sonarr", cfg)}
}

// sonarrSeries is the subset of Sonarr's series resource Curatarr touches.
type sonarrSeries struct {
	ID               int64             `json:"id,omitempty"`
	Title            string            `json:"title"`
	TvdbID           int64             `json:"tvdbId"`
	Year             int               `json:"year,omitempty"`
	Monitored        bool              `json:"monitored"`
	QualityProfileID int64             `json:"qualityProfileId,omitempty"`
	RootFolderPath   string            `json:"rootFolderPath,omitempty"`
	SeasonFolder     bool              `json:"seasonFolder"`
	Tags             []int64           `json:"tags,omitempty"`
	AddOptions       *sonarrAddOptions `json:"addOptions,omitempty"`
}

type sonarrAddOptions struct {
	Monitor                  string `json:"monitor"` // "all"
	SearchForMissingEpisodes bool   `json:"searchForMissingEpisodes"`
}

type sonarrEditorPayload struct {
	SeriesIDs []int64 `json:"seriesIds"`
	Monitored bool    `json:"monitored"`
}

func (c *SonarrClient) Name() string { return "sonarr" }

// ListCatalog fetches Sonarr's full series list.
func (c *SonarrClient) ListCatalog(ctx context.Context) ([]models.BackendItem, error) {
	var series []sonarrSeries
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/series", nil, &series); err != nil {
		return nil, fmt.Errorf("sonarr list catalog: %w", err)
	}

	items := make([]models.BackendItem, 0, len(series))
	for _, s := range series {
		items = append(items, models.BackendItem{
			ID:         s.ID,
			Title:      s.Title,
			ExternalID: s.TvdbID,
			Year:       s.Year,
			Monitored:  s.Monitored,
		})
	}
	return items, nil
}

// AddItem adds one series monitored in full with an immediate search for
// missing episodes.
func (c *SonarrClient) AddItem(ctx context.Context, req models.BackendAddRequest) (*models.BackendItem, error) {
	payload := sonarrSeries{
		Title:            req.Title,
		TvdbID:           req.ExternalID,
		Year:             req.Year,
		Monitored:        req.Monitored,
		QualityProfileID: req.QualityProfileID,
		RootFolderPath:   req.RootFolderPath,
		SeasonFolder:     true,
		Tags:             req.TagIDs,
		AddOptions: &sonarrAddOptions{
			Monitor:                  "all",
			SearchForMissingEpisodes: req.SearchNow,
		},
	}

	var created sonarrSeries
	if err := c.doJSON(ctx, http.MethodPost, "/api/v3/series", payload, &created); err != nil {
		return nil, fmt.Errorf("sonarr add series %q: %w", req.Title, err)
	}
	return &models.BackendItem{
		ID:         created.ID,
		Title:      created.Title,
		ExternalID: created.TvdbID,
		Year:       created.Year,
		Monitored:  created.Monitored,
	}, nil
}

// SetMonitored flips the monitored flag on one series through the bulk
// editor endpoint.
func (c *SonarrClient) SetMonitored(ctx context.Context, id int64, monitored bool) error {
	payload := sonarrEditorPayload{
		SeriesIDs: []int64{id},
		Monitored: monitored,
	}
	if err := c.doJSON(ctx, http.MethodPut, "/api/v3/series/editor", payload, nil); err != nil {
		return fmt.Errorf("sonarr set monitored for series %d: %w", id, err)
	}
	return nil
}

func (c *SonarrClient) ListRootFolders(ctx context.Context) ([]models.BackendRootFolder, error) {
	return c.listRootFolders(ctx)
}

func (c *SonarrClient) ListQualityProfiles(ctx context.Context) ([]models.BackendQualityProfile, error) {
	return c.listQualityProfiles(ctx)
}

func (c *SonarrClient) ListTags(ctx context.Context) ([]models.BackendTag, error) {
	var tags []models.BackendTag
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/tag", nil, &tags); err != nil {
		return nil, fmt.Errorf("sonarr list tags: %w", err)
	}
	return tags, nil
}

func (c *SonarrClient) EnsureTag(ctx context.Context, label string) (*models.BackendTag, error) {
	return c.ensureTag(ctx, label)
}
