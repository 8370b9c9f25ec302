// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

/*
plex_client.go - Plex Media Server API Client

PlexClient features:
  - X-Plex-Token authentication on every request
  - Accept: application/json so Plex answers JSON instead of XML
  - Automatic HTTP 429 retry with exponential backoff
  - Collection management (list, create with an ordered item set, delete)

The collection publisher recreates collections instead of editing them in
place; the only mutating endpoints used here are collection create and
delete.

Related files:
  - plex_guid.go: external GUID parsing (tmdb:// / tvdb:// / imdb://)
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/metrics"
	"github.com/tomtom215/curatarr/internal/models"
)

// PlexClient handles communication with the Plex Media Server API.
type PlexClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewPlexClient creates an authenticated Plex client from config.
func NewPlexClient(cfg *config.PlexConfig) *PlexClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PlexClient{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// requestConfig holds configuration for building HTTP requests.
type requestConfig struct {
	method      string
	path        string
	query       url.Values
	expectOK    bool // if true, require 200 OK
	expectNoErr bool // if true, also accept 201 Created and 204 No Content
}

// doRequest executes a Plex API request and decodes the JSON response into
// result when non-nil.
func (c *PlexClient) doRequest(ctx context.Context, cfg requestConfig, result interface{}) error {
	reqURL := fmt.Sprintf("%s%s", c.baseURL, cfg.path)

	req, err := http.NewRequestWithContext(ctx, cfg.method, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("Accept", "application/json")

	if len(cfg.query) > 0 {
		req.URL.RawQuery = cfg.query.Encode()
	}

	start := time.Now()
	resp, err := c.doRequestWithRateLimit(req)
	metrics.RecordUpstreamRequest("plex", cfg.path, time.Since(start), err)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if cfg.expectNoErr {
		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		default:
			return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
		}
	} else if cfg.expectOK && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doJSONRequest is a convenience wrapper for GET requests expecting 200.
func (c *PlexClient) doJSONRequest(ctx context.Context, path string, query url.Values, result interface{}) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     path,
		query:    query,
		expectOK: true,
	}, result)
}

// doRequestWithRateLimit executes an HTTP request with automatic retry on
// rate limiting (HTTP 429).
//
// Retry behavior:
//   - Max 5 retry attempts
//   - Exponential backoff: 1s, 2s, 4s, 8s, 16s
//   - Respects the Retry-After header (RFC 6585) if present
func (c *PlexClient) doRequestWithRateLimit(req *http.Request) (*http.Response, error) {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		resp.Body.Close()

		if attempt == maxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", maxRetries)
		}

		retryDelay := baseDelay * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				retryDelay = seconds
			}
		}

		logging.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Msg("Plex API rate limited (HTTP 429), retrying")

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}

// Ping checks connectivity and authentication to the Plex server.
func (c *PlexClient) Ping(ctx context.Context) error {
	return c.doRequest(ctx, requestConfig{
		method:   http.MethodGet,
		path:     "/identity",
		expectOK: true,
	}, nil)
}

// GetMachineIdentifier returns the server's stable machine identifier, which
// anchors collection URIs to a specific server.
func (c *PlexClient) GetMachineIdentifier(ctx context.Context) (string, error) {
	var identity models.PlexIdentityResponse
	if err := c.doJSONRequest(ctx, "/identity", nil, &identity); err != nil {
		return "", fmt.Errorf("get machine identifier: %w", err)
	}
	if identity.MediaContainer.MachineIdentifier == "" {
		return "", fmt.Errorf("plex returned empty machine identifier")
	}
	return identity.MediaContainer.MachineIdentifier, nil
}

// GetLibrarySections lists all library sections on the server.
func (c *PlexClient) GetLibrarySections(ctx context.Context) ([]models.PlexLibrarySection, error) {
	var resp models.PlexLibrarySectionsResponse
	if err := c.doJSONRequest(ctx, "/library/sections", nil, &resp); err != nil {
		return nil, fmt.Errorf("get library sections: %w", err)
	}
	return resp.MediaContainer.Directory, nil
}

// GetSectionItems fetches every item in a library section, including the
// per-item external GUID list used to map titles to TMDB/TVDB ids.
func (c *PlexClient) GetSectionItems(ctx context.Context, sectionKey string) ([]models.PlexLibraryItem, error) {
	query := url.Values{}
	query.Set("includeGuids", "1")

	var resp models.PlexLibraryItemsResponse
	path := fmt.Sprintf("/library/sections/%s/all", url.PathEscape(sectionKey))
	if err := c.doJSONRequest(ctx, path, query, &resp); err != nil {
		return nil, fmt.Errorf("get section %s items: %w", sectionKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}

// GetCollections lists the collections in a library section.
func (c *PlexClient) GetCollections(ctx context.Context, sectionKey string) ([]models.PlexCollection, error) {
	var resp models.PlexCollectionsResponse
	path := fmt.Sprintf("/library/sections/%s/collections", url.PathEscape(sectionKey))
	if err := c.doJSONRequest(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get section %s collections: %w", sectionKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}

// GetCollectionItems lists the items of one collection in their published
// order.
func (c *PlexClient) GetCollectionItems(ctx context.Context, collectionRatingKey string) ([]models.PlexLibraryItem, error) {
	var resp models.PlexCollectionItemsResponse
	path := fmt.Sprintf("/library/collections/%s/children", url.PathEscape(collectionRatingKey))
	if err := c.doJSONRequest(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get collection %s items: %w", collectionRatingKey, err)
	}
	return resp.MediaContainer.Metadata, nil
}

// CreateCollection creates a collection in the given section containing the
// rating keys in order, returning the new collection's rating key.
//
// plexType is Plex's numeric item type: 1 for movies, 2 for shows.
func (c *PlexClient) CreateCollection(ctx context.Context, machineID, sectionKey, title string, plexType int, ratingKeys []string) (string, error) {
	if len(ratingKeys) == 0 {
		return "", fmt.Errorf("cannot create collection %q with no items", title)
	}

	uri := fmt.Sprintf("server://%s/com.plexapp.plugins.library/library/metadata/%s",
		machineID, strings.Join(ratingKeys, ","))

	query := url.Values{}
	query.Set("type", fmt.Sprintf("%d", plexType))
	query.Set("title", title)
	query.Set("smart", "0")
	query.Set("sectionId", sectionKey)
	query.Set("uri", uri)

	var resp models.PlexCollectionsResponse
	err := c.doRequest(ctx, requestConfig{
		method:      http.MethodPost,
		path:        "/library/collections",
		query:       query,
		expectNoErr: true,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("create collection %q: %w", title, err)
	}
	if len(resp.MediaContainer.Metadata) == 0 {
		return "", fmt.Errorf("create collection %q: empty response", title)
	}
	return resp.MediaContainer.Metadata[0].RatingKey, nil
}

// DeleteCollection removes a collection by rating key. The collection's
// items are untouched.
func (c *PlexClient) DeleteCollection(ctx context.Context, collectionRatingKey string) error {
	path := fmt.Sprintf("/library/collections/%s", url.PathEscape(collectionRatingKey))
	err := c.doRequest(ctx, requestConfig{
		method:      http.MethodDelete,
		path:        path,
		expectNoErr: true,
	}, nil)
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", collectionRatingKey, err)
	}
	return nil
}
