// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/curatarr/config.yaml",
	"/etc/curatarr/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Plex: PlexConfig{
			URL:     "",
			Token:   "",
			Timeout: 30 * time.Second,
		},
		Radarr: BackendConfig{
			Enabled: false,
			Timeout: 30 * time.Second,
		},
		Sonarr: BackendConfig{
			Enabled: false,
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "/data/curatarr.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = use runtime.NumCPU()
		},
		Suggest: SuggestConfig{
			MovieApprovalRequired: false,
			ShowApprovalRequired:  false,
			RejectedBatchCap:      500,
			ApprovedBatchCap:      500,
			MovieCollectionName:   "Immaculate Taste",
			ShowCollectionName:    "Immaculate Taste TV",
			MovieMinScore:         1,
			ShowMinScore:          0,
			Ordering: OrderingConfig{
				HighVoteAverage: 7.5,
				HighVoteCount:   200,
				MidVoteAverage:  6.0,
			},
		},
		Scheduler: SchedulerConfig{
			Enabled:  false, // opt-in only; applies are user-triggered by default
			Interval: 6 * time.Hour,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3858,
			Timeout: 30 * time.Second,
		},
		API: APIConfig{
			DefaultPageSize:   50,
			MaxPageSize:       500,
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override and then the default paths,
// returning the first file that exists.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are the config paths parsed as comma-separated slices
// when they arrive from environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars come in as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped variables are dropped so random environment noise cannot pollute
// the config.
//
// Examples:
//   - PLEX_URL -> plex.url
//   - RADARR_API_KEY -> radarr.api_key
//   - SUGGEST_MOVIE_APPROVAL_REQUIRED -> suggest.movie_approval_required
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Plex mappings
		"plex_url":     "plex.url",
		"plex_token":   "plex.token",
		"plex_timeout": "plex.timeout",

		// Radarr mappings
		"radarr_enabled":         "radarr.enabled",
		"radarr_url":             "radarr.url",
		"radarr_api_key":         "radarr.api_key",
		"radarr_root_folder":     "radarr.root_folder",
		"radarr_quality_profile": "radarr.quality_profile",
		"radarr_tag_name":        "radarr.tag_name",
		"radarr_timeout":         "radarr.timeout",

		// Sonarr mappings
		"sonarr_enabled":         "sonarr.enabled",
		"sonarr_url":             "sonarr.url",
		"sonarr_api_key":         "sonarr.api_key",
		"sonarr_root_folder":     "sonarr.root_folder",
		"sonarr_quality_profile": "sonarr.quality_profile",
		"sonarr_tag_name":        "sonarr.tag_name",
		"sonarr_timeout":         "sonarr.timeout",

		// Database mappings
		"duckdb_path":       "database.path",
		"duckdb_max_memory": "database.max_memory",
		"duckdb_threads":    "database.threads",

		// Suggestion lifecycle mappings
		"suggest_movie_approval_required": "suggest.movie_approval_required",
		"suggest_show_approval_required":  "suggest.show_approval_required",
		"suggest_rejected_batch_cap":      "suggest.rejected_batch_cap",
		"suggest_approved_batch_cap":      "suggest.approved_batch_cap",
		"suggest_movie_collection_name":   "suggest.movie_collection_name",
		"suggest_show_collection_name":    "suggest.show_collection_name",
		"suggest_movie_min_score":         "suggest.movie_min_score",
		"suggest_show_min_score":          "suggest.show_min_score",
		"ordering_high_vote_average":      "suggest.ordering.high_vote_average",
		"ordering_high_vote_count":        "suggest.ordering.high_vote_count",
		"ordering_mid_vote_average":       "suggest.ordering.mid_vote_average",

		// Scheduler mappings
		"scheduler_enabled":  "scheduler.enabled",
		"scheduler_interval": "scheduler.interval",

		// Server mappings
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",

		// API mappings
		"api_default_page_size":   "api.default_page_size",
		"api_max_page_size":       "api.max_page_size",
		"api_rate_limit_requests": "api.rate_limit_requests",
		"api_rate_limit_window":   "api.rate_limit_window",
		"cors_origins":            "api.cors_origins",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
