// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

// Package config holds all application configuration, loaded through Koanf v2
// with layered precedence: built-in defaults, then an optional YAML config
// file, then environment variables.
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"time"
)

// Config is the root configuration for Curatarr.
type Config struct {
	Plex      PlexConfig      `koanf:"plex"`
	Radarr    BackendConfig   `koanf:"radarr"`
	Sonarr    BackendConfig   `koanf:"sonarr"`
	Database  DatabaseConfig  `koanf:"database"`
	Suggest   SuggestConfig   `koanf:"suggest"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Server    ServerConfig    `koanf:"server"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// PlexConfig holds Plex Media Server connection settings. The Plex URL and
// token anchor title identity; apply passes fail fast without them.
//
// Environment Variables:
//   - PLEX_URL: Plex server URL (e.g., http://localhost:32400)
//   - PLEX_TOKEN: X-Plex-Token value
type PlexConfig struct {
	URL     string        `koanf:"url"`
	Token   string        `koanf:"token"`
	Timeout time.Duration `koanf:"timeout"`
}

// BackendConfig holds connection and default-selection settings for one
// download-automation backend (Radarr or Sonarr).
//
// RootFolder, QualityProfile, and TagName are preferences, not requirements:
// when unset (or not present on the backend) the reconciler falls back to
// the backend's first available root folder and quality profile, and skips
// tagging.
type BackendConfig struct {
	Enabled        bool          `koanf:"enabled"`
	URL            string        `koanf:"url"`
	APIKey         string        `koanf:"api_key"`
	RootFolder     string        `koanf:"root_folder"`
	QualityProfile string        `koanf:"quality_profile"`
	TagName        string        `koanf:"tag_name"`
	Timeout        time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings for the suggestion store.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// SuggestConfig holds suggestion lifecycle settings shared by the decision
// recorder and the backend reconciler.
//
// ApprovalRequired gates the add phase: when false, approved rows are never
// loaded and rows carry downloadApproval=none from creation. The batch caps
// bound how many rejected/approved rows a single apply pass will reconcile;
// they are safety caps against unbounded batch operations, not correctness
// limits.
type SuggestConfig struct {
	MovieApprovalRequired bool `koanf:"movie_approval_required"`
	ShowApprovalRequired  bool `koanf:"show_approval_required"`
	RejectedBatchCap      int  `koanf:"rejected_batch_cap"`
	ApprovedBatchCap      int  `koanf:"approved_batch_cap"`

	MovieCollectionName string `koanf:"movie_collection_name"`
	ShowCollectionName  string `koanf:"show_collection_name"`

	// Minimum points for a row to enter the published collection.
	MovieMinScore int `koanf:"movie_min_score"`
	ShowMinScore  int `koanf:"show_min_score"`

	Ordering OrderingConfig `koanf:"ordering"`
}

// OrderingConfig holds the quality-tier thresholds used by the collection
// orderer. These are tunables: the externally observable contract is only
// that partitioning is deterministic in (vote_average, vote_count) and that
// tiers concatenate high, mid, low.
type OrderingConfig struct {
	HighVoteAverage float64 `koanf:"high_vote_average"`
	HighVoteCount   int     `koanf:"high_vote_count"`
	MidVoteAverage  float64 `koanf:"mid_vote_average"`
}

// SchedulerConfig controls the optional supervised reconcile scheduler.
// When enabled, every dataset listed in Datasets gets an apply pass each
// Interval. Disabled by default; user-triggered applies through the API work
// regardless.
type SchedulerConfig struct {
	Enabled  bool            `koanf:"enabled"`
	Interval time.Duration   `koanf:"interval"`
	Datasets []DatasetConfig `koanf:"datasets"`
}

// DatasetConfig names one suggestion dataset: a Plex library section plus a
// media kind.
type DatasetConfig struct {
	LibrarySectionKey string `koanf:"library_section_key"`
	MediaType         string `koanf:"media_type"` // movie | show
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// APIConfig holds API behavior settings.
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads configuration using the Koanf layering. It is the only
// constructor callers should use.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
