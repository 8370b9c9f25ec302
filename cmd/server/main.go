// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

// Package main is the entry point for the Curatarr server application.
//
// Curatarr is a self-hosted Plex companion that records approve, reject, and
// keep decisions on suggested titles, reconciles those decisions against
// Radarr and Sonarr, and rebuilds curated Plex collections from the surviving
// suggestions.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Database: Initialize DuckDB for suggestion and rejected-title persistence
//  3. Plex Client: Connect to the Plex server hosting the curated collections
//  4. Backends: Radarr (movies) and Sonarr (shows) behind circuit breakers
//  5. Engine: Decision recording and reconciliation
//  6. HTTP Server: REST API under /api/v1 plus Prometheus metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest priority wins):
//   - Environment variables (CURATARR_ prefix)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required settings:
//   - PLEX_URL, PLEX_TOKEN: the Plex server to curate
//
// Optional backends:
//   - Radarr: RADARR_ENABLED=true, RADARR_URL, RADARR_API_KEY
//   - Sonarr: SONARR_ENABLED=true, SONARR_URL, SONARR_API_KEY
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the engine and database connections
//
// # Example Usage
//
// Decisions-only mode (no Radarr/Sonarr, collections still rebuilt):
//
//	export PLEX_URL=http://localhost:32400
//	export PLEX_TOKEN=your-plex-token
//	./curatarr
//
// Full reconciliation with Radarr:
//
//	export PLEX_URL=http://plex:32400
//	export PLEX_TOKEN=your-plex-token
//	export RADARR_ENABLED=true
//	export RADARR_URL=http://radarr:7878
//	export RADARR_API_KEY=your-radarr-api-key
//	./curatarr
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/curatarr/internal/api"
	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/database"
	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/models"
	"github.com/tomtom215/curatarr/internal/suggest"
	"github.com/tomtom215/curatarr/internal/supervisor"
	"github.com/tomtom215/curatarr/internal/supervisor/services"
	syncer "github.com/tomtom215/curatarr/internal/sync"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize zerolog with configuration
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Curatarr with supervisor tree")
	logging.Info().
		Str("plex_url", cfg.Plex.URL).
		Str("db_path", cfg.Database.Path).
		Bool("radarr_enabled", cfg.Radarr.Enabled).
		Bool("sonarr_enabled", cfg.Sonarr.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	// Plex client for collection rebuilds. A failed ping is not fatal; the
	// apply path re-checks connectivity per pass.
	plexClient := syncer.NewPlexClient(&cfg.Plex)
	if err := plexClient.Ping(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to connect to Plex (will retry on demand)")
	} else {
		logging.Info().Msg("Connected to Plex successfully")
	}

	// Radarr/Sonarr behind circuit breakers so a flapping backend cannot
	// stall reconcile passes.
	backends := make(map[models.MediaType]syncer.Backend)
	if cfg.Radarr.Enabled {
		backends[models.MediaTypeMovie] = syncer.NewCircuitBreakerBackend(syncer.NewRadarrClient(&cfg.Radarr))
		logging.Info().Str("url", cfg.Radarr.URL).Msg("Radarr backend enabled")
	}
	if cfg.Sonarr.Enabled {
		backends[models.MediaTypeShow] = syncer.NewCircuitBreakerBackend(syncer.NewSonarrClient(&cfg.Sonarr))
		logging.Info().Str("url", cfg.Sonarr.URL).Msg("Sonarr backend enabled")
	}
	if len(backends) == 0 {
		logging.Info().Msg("No backends enabled - rejected titles will be purged without unmonitoring")
	}

	engine := suggest.NewEngine(cfg, db, plexClient, backends)
	defer engine.Close()

	handler := api.NewHandler(cfg, engine, db)
	router := api.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()
	tree := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if cfg.Scheduler.Enabled {
		tree.AddReconcileService(services.NewSchedulerService(engine, cfg.Scheduler.Interval, cfg.Scheduler.Datasets))
		logging.Info().
			Dur("interval", cfg.Scheduler.Interval).
			Int("datasets", len(cfg.Scheduler.Datasets)).
			Msg("Reconcile scheduler service added")
	} else {
		logging.Info().Msg("Reconcile scheduler disabled - apply runs only via API")
	}

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// Report any services that failed to stop within timeout
	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
