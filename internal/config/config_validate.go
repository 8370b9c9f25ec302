// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for internal consistency. It is called
// by Load after all sources are merged; a failed validation aborts startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}

	if c.Plex.URL != "" {
		if err := validateURL("plex.url", c.Plex.URL); err != nil {
			return err
		}
	}
	if c.Plex.Timeout <= 0 {
		return fmt.Errorf("plex.timeout must be positive, got %s", c.Plex.Timeout)
	}

	if err := validateBackend("radarr", &c.Radarr); err != nil {
		return err
	}
	if err := validateBackend("sonarr", &c.Sonarr); err != nil {
		return err
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("database.threads must not be negative, got %d", c.Database.Threads)
	}

	if c.Suggest.RejectedBatchCap < 1 {
		return fmt.Errorf("suggest.rejected_batch_cap must be at least 1, got %d", c.Suggest.RejectedBatchCap)
	}
	if c.Suggest.ApprovedBatchCap < 1 {
		return fmt.Errorf("suggest.approved_batch_cap must be at least 1, got %d", c.Suggest.ApprovedBatchCap)
	}
	if c.Suggest.MovieCollectionName == "" || c.Suggest.ShowCollectionName == "" {
		return fmt.Errorf("suggest collection names must not be empty")
	}
	if c.Suggest.Ordering.HighVoteAverage < c.Suggest.Ordering.MidVoteAverage {
		return fmt.Errorf("suggest.ordering.high_vote_average (%v) must not be below mid_vote_average (%v)",
			c.Suggest.Ordering.HighVoteAverage, c.Suggest.Ordering.MidVoteAverage)
	}
	if c.Suggest.Ordering.HighVoteCount < 0 {
		return fmt.Errorf("suggest.ordering.high_vote_count must not be negative, got %d", c.Suggest.Ordering.HighVoteCount)
	}

	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			return fmt.Errorf("scheduler.interval must be positive when the scheduler is enabled, got %s", c.Scheduler.Interval)
		}
		for i, ds := range c.Scheduler.Datasets {
			if ds.LibrarySectionKey == "" {
				return fmt.Errorf("scheduler.datasets[%d].library_section_key must not be empty", i)
			}
			if ds.MediaType != "movie" && ds.MediaType != "show" {
				return fmt.Errorf("scheduler.datasets[%d].media_type must be \"movie\" or \"show\", got %q", i, ds.MediaType)
			}
		}
	}

	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("api.default_page_size must be at least 1, got %d", c.API.DefaultPageSize)
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("api.max_page_size (%d) must not be below default_page_size (%d)",
			c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.RateLimitRequests < 1 {
		return fmt.Errorf("api.rate_limit_requests must be at least 1, got %d", c.API.RateLimitRequests)
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api.rate_limit_window must be positive, got %s", c.API.RateLimitWindow)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be \"json\" or \"console\", got %q", c.Logging.Format)
	}

	return nil
}

// validateBackend checks one Radarr/Sonarr block. URL and API key are only
// required when the backend is enabled; a disabled backend may carry partial
// settings.
func validateBackend(name string, b *BackendConfig) error {
	if !b.Enabled {
		return nil
	}
	if b.URL == "" {
		return fmt.Errorf("%s.url must be set when %s.enabled is true", name, name)
	}
	if err := validateURL(name+".url", b.URL); err != nil {
		return err
	}
	if b.APIKey == "" {
		return fmt.Errorf("%s.api_key must be set when %s.enabled is true", name, name)
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("%s.timeout must be positive, got %s", name, b.Timeout)
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https scheme, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host, got %q", field, raw)
	}
	return nil
}
