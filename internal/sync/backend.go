// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package sync

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/metrics"
	"github.com/tomtom215/curatarr/internal/models"
)

// Backend is the download-automation client the reconciler drives. Radarr
// implements it for movies, Sonarr for shows; the reconciliation routine is
// identical across the two.
type Backend interface {
	// Name identifies the backend in logs and metrics ("radarr", "sonarr").
	Name() string
	// ListCatalog fetches the backend's full catalog, normalized to
	// BackendItem. The reconciler fetches it once per pass and indexes by
	// external id.
	ListCatalog(ctx context.Context) ([]models.BackendItem, error)
	// AddItem issues an add-and-search request for one title.
	AddItem(ctx context.Context, req models.BackendAddRequest) (*models.BackendItem, error)
	// SetMonitored flips the monitored flag on an existing catalog item.
	SetMonitored(ctx context.Context, id int64, monitored bool) error
	// ListRootFolders lists the backend's configured root folders.
	ListRootFolders(ctx context.Context) ([]models.BackendRootFolder, error)
	// ListQualityProfiles lists the backend's quality profiles.
	ListQualityProfiles(ctx context.Context) ([]models.BackendQualityProfile, error)
	// ListTags lists the backend's tags.
	ListTags(ctx context.Context) ([]models.BackendTag, error)
	// EnsureTag returns the tag with the given label, creating it if absent.
	EnsureTag(ctx context.Context, label string) (*models.BackendTag, error)
}

// arrClient is the shared HTTP plumbing for Radarr and Sonarr: X-Api-Key
// authentication, JSON bodies, HTTP 429 retry, and a client-side pacing
// limiter so per-row reconciliation loops cannot burst the backend.
type arrClient struct {
	name       string
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func newArrClient(name string, cfg *config.BackendConfig) *arrClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &arrClient{
		name:    name,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		// 4 requests/second sustained with a small burst allowance.
		limiter: rate.NewLimiter(rate.Every(250*time.Millisecond), 2),
	}
}

// doJSON executes one API request. body (if non-nil) is JSON-encoded into
// the request; result (if non-nil) receives the decoded response.
func (c *arrClient) doJSON(ctx context.Context, method, path string, body, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	start := time.Now()
	resp, err := c.doWithRetry(ctx, method, c.baseURL+path, payload)
	metrics.RecordUpstreamRequest(c.name, path, time.Since(start), err)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// doWithRetry executes the request with automatic retry on HTTP 429,
// exponential backoff 1s..16s, honoring Retry-After. The body is re-created
// per attempt because http.Request bodies are single-use.
func (c *arrClient) doWithRetry(ctx context.Context, method, reqURL string, payload []byte) (*http.Response, error) {
	const maxRetries = 5
	baseDelay := 1 * time.Second

	for attempt := 0; attempt <= maxRetries; attempt++ {
		var bodyReader io.Reader = http.NoBody
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

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

		logging.Warn().Str("backend", c.name).Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Msg("Backend API rate limited (HTTP 429), retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("unreachable code: retry loop should return or error")
}

// ensureTag is the shared get-or-create tag flow: both backends expose the
// same /api/v3/tag resource.
func (c *arrClient) ensureTag(ctx context.Context, label string) (*models.BackendTag, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return nil, fmt.Errorf("tag label must not be empty")
	}

	var tags []models.BackendTag
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/tag", nil, &tags); err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	for i := range tags {
		if strings.EqualFold(tags[i].Label, label) {
			return &tags[i], nil
		}
	}

	var created models.BackendTag
	if err := c.doJSON(ctx, http.MethodPost, "/api/v3/tag", map[string]string{"label": label}, &created); err != nil {
		return nil, fmt.Errorf("create tag %q: %w", label, err)
	}
	return &created, nil
}

func (c *arrClient) listRootFolders(ctx context.Context) ([]models.BackendRootFolder, error) {
	var folders []models.BackendRootFolder
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/rootfolder", nil, &folders); err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	return folders, nil
}

func (c *arrClient) listQualityProfiles(ctx context.Context) ([]models.BackendQualityProfile, error) {
	var profiles []models.BackendQualityProfile
	if err := c.doJSON(ctx, http.MethodGet, "/api/v3/qualityprofile", nil, &profiles); err != nil {
		return nil, fmt.Errorf("list quality profiles: %w", err)
	}
	return profiles, nil
}
