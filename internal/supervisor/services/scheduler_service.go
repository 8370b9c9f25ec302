// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/models"
	"github.com/tomtom215/curatarr/internal/suggest"
)

// Reconciler is the engine surface the scheduler drives.
type Reconciler interface {
	Apply(ctx context.Context, sectionKey string, mediaType models.MediaType) (*models.ApplyResult, error)
}

// SchedulerService runs one reconciliation pass per configured dataset every
// interval. A pass already in flight for a dataset (for example one a user
// triggered through the API) is skipped, not queued.
type SchedulerService struct {
	reconciler Reconciler
	interval   time.Duration
	datasets   []config.DatasetConfig
}

// NewSchedulerService creates the interval scheduler.
func NewSchedulerService(reconciler Reconciler, interval time.Duration, datasets []config.DatasetConfig) *SchedulerService {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &SchedulerService{
		reconciler: reconciler,
		interval:   interval,
		datasets:   datasets,
	}
}

// Serve implements suture.Service. The first tick happens one full interval
// after startup so a restart loop cannot hammer the backends.
func (s *SchedulerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runPass(ctx)
		}
	}
}

func (s *SchedulerService) runPass(ctx context.Context) {
	for _, ds := range s.datasets {
		mediaType := models.MediaType(ds.MediaType)
		if !mediaType.Valid() {
			logging.Warn().
				Str("section", ds.LibrarySectionKey).
				Str("media_type", ds.MediaType).
				Msg("Skipping dataset with invalid media type")
			continue
		}

		result, err := s.reconciler.Apply(ctx, ds.LibrarySectionKey, mediaType)
		switch {
		case errors.Is(err, suggest.ErrApplyInProgress):
			logging.Info().
				Str("section", ds.LibrarySectionKey).
				Str("media_type", ds.MediaType).
				Msg("Scheduled pass skipped, dataset busy")
		case err != nil:
			logging.Error().
				Err(err).
				Str("section", ds.LibrarySectionKey).
				Str("media_type", ds.MediaType).
				Msg("Scheduled reconciliation failed")
		default:
			logging.Info().
				Str("section", ds.LibrarySectionKey).
				Str("media_type", ds.MediaType).
				Int("sent", result.Sent).
				Int("unmonitored", result.Unmonitored).
				Int("dataset_removed", result.DatasetRemoved).
				Msg("Scheduled reconciliation complete")
		}
	}
}

// String identifies the service in suture logs.
func (s *SchedulerService) String() string {
	return "reconcile-scheduler"
}
