// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/database"
	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/metrics"
	"github.com/tomtom215/curatarr/internal/models"
	syncer "github.com/tomtom215/curatarr/internal/sync"
)

// Apply runs one full reconciliation pass over a dataset: unmonitor
// rejected titles on the backend, send approved titles as add-and-search
// requests, purge resolved rejected rows, and rebuild the curated
// collection. Per-item upstream failures are swallowed and reported in the
// result's Failures list; only configuration and dataset-level errors abort
// the pass.
//
// Passes for the same (librarySectionKey, mediaType) are mutually exclusive;
// a concurrent second call returns ErrApplyInProgress.
func (e *Engine) Apply(ctx context.Context, sectionKey string, mediaType models.MediaType) (*models.ApplyResult, error) {
	if !mediaType.Valid() {
		return nil, ErrUnsupportedMediaType
	}
	if e.cfg.Plex.URL == "" || e.cfg.Plex.Token == "" {
		return nil, ErrMediaServerNotConfigured
	}

	key := datasetKey(sectionKey, string(mediaType))
	if !e.locks.TryLock(key) {
		return nil, ErrApplyInProgress
	}
	defer e.locks.Unlock(key)

	start := time.Now()
	backendCfg := e.backendConfig(mediaType)
	backend := e.backends[mediaType]
	enabled := backendCfg.Enabled && backend != nil

	result := &models.ApplyResult{Enabled: enabled}

	rejected, err := e.db.ListByApproval(ctx, sectionKey, mediaType, models.ApprovalRejected, e.cfg.Suggest.RejectedBatchCap)
	if err != nil {
		return nil, fmt.Errorf("load rejected rows: %w", err)
	}

	// The backend catalog is fetched at most once per pass and shared by
	// the unmonitor and add phases.
	var catalog map[int64]models.BackendItem

	if enabled {
		catalog, err = e.unmonitorRejected(ctx, backend, mediaType, rejected, result)
		if err != nil {
			return nil, err
		}

		if e.approvalRequired(mediaType) {
			if err := e.sendApproved(ctx, backend, backendCfg, sectionKey, mediaType, catalog, result); err != nil {
				return nil, err
			}
		}
	}

	removed, err := e.db.DeleteRejectedRows(ctx, sectionKey, mediaType)
	if err != nil {
		return nil, fmt.Errorf("delete rejected rows: %w", err)
	}
	result.DatasetRemoved = int(removed)

	collection, err := e.rebuildCollection(ctx, sectionKey, mediaType)
	if err != nil {
		return nil, fmt.Errorf("rebuild collection: %w", err)
	}
	result.Collection = collection

	metrics.RecordReconcilePass(string(mediaType), time.Since(start), result.Sent, result.Unmonitored, removed, len(result.Failures))

	logging.Info().
		Str("section", sectionKey).
		Str("media_type", string(mediaType)).
		Bool("backend_enabled", enabled).
		Int("sent", result.Sent).
		Int("unmonitored", result.Unmonitored).
		Int("dataset_removed", result.DatasetRemoved).
		Int("failures", len(result.Failures)).
		Dur("elapsed", time.Since(start)).
		Msg("Reconciliation pass complete")

	return result, nil
}

// unmonitorRejected flips monitoring off for rejected rows that were
// previously sent to the backend. Rows never sent have nothing to
// unmonitor; titles absent from the backend catalog are skipped silently
// because there is no resource to act on. Returns the fetched catalog index
// for reuse by the add phase, or nil when the fetch was not needed.
func (e *Engine) unmonitorRejected(ctx context.Context, backend syncer.Backend, mediaType models.MediaType, rejected []models.Suggestion, result *models.ApplyResult) (map[int64]models.BackendItem, error) {
	var sent []models.Suggestion
	for _, row := range rejected {
		if row.SentToBackendAt != nil {
			sent = append(sent, row)
		}
	}
	if len(sent) == 0 {
		return nil, nil
	}

	catalog, err := e.fetchCatalog(ctx, backend)
	if err != nil {
		return nil, err
	}

	for _, row := range sent {
		item, ok := catalog[row.ExternalID]
		if !ok {
			continue
		}
		if err := backend.SetMonitored(ctx, item.ID, false); err != nil {
			result.Failures = append(result.Failures, models.ApplyFailure{
				Phase:      "unmonitor",
				ExternalID: row.ExternalID,
				Title:      row.Title,
				Error:      err.Error(),
			})
			metrics.ReconcileItemFailures.WithLabelValues(string(mediaType), "unmonitor").Inc()
			continue
		}
		result.Unmonitored++
	}
	return catalog, nil
}

// sendApproved forwards every approved row to the backend as an
// add-and-search request, or re-monitors the title if the backend already
// has it, then stamps the row sent. A row whose one-shot sent stamp was
// already taken is skipped without a failure.
func (e *Engine) sendApproved(ctx context.Context, backend syncer.Backend, backendCfg config.BackendConfig, sectionKey string, mediaType models.MediaType, catalog map[int64]models.BackendItem, result *models.ApplyResult) error {
	approved, err := e.db.ListByApproval(ctx, sectionKey, mediaType, models.ApprovalApproved, e.cfg.Suggest.ApprovedBatchCap)
	if err != nil {
		return fmt.Errorf("load approved rows: %w", err)
	}
	if len(approved) == 0 {
		return nil
	}

	if catalog == nil {
		catalog, err = e.fetchCatalog(ctx, backend)
		if err != nil {
			return err
		}
	}

	defaults, err := e.resolveDefaults(ctx, backend, backendCfg)
	if err != nil {
		return fmt.Errorf("resolve backend defaults: %w", err)
	}

	for _, row := range approved {
		// The sent stamp is one-shot. A row re-approved after an earlier
		// pass already delivered it is skipped before any backend call.
		if row.SentToBackendAt != nil {
			continue
		}
		if err := e.sendOne(ctx, backend, defaults, catalog, row); err != nil {
			result.Failures = append(result.Failures, models.ApplyFailure{
				Phase:      "add",
				ExternalID: row.ExternalID,
				Title:      row.Title,
				Error:      err.Error(),
			})
			metrics.ReconcileItemFailures.WithLabelValues(string(mediaType), "add").Inc()
			continue
		}
		result.Sent++
	}
	return nil
}

func (e *Engine) sendOne(ctx context.Context, backend syncer.Backend, defaults *models.BackendDefaults, catalog map[int64]models.BackendItem, row models.Suggestion) error {
	if existing, ok := catalog[row.ExternalID]; ok {
		if err := backend.SetMonitored(ctx, existing.ID, true); err != nil {
			return fmt.Errorf("re-monitor existing item: %w", err)
		}
	} else {
		req := models.BackendAddRequest{
			Title:            row.Title,
			ExternalID:       row.ExternalID,
			Year:             row.Year,
			QualityProfileID: defaults.QualityProfileID,
			RootFolderPath:   defaults.RootFolderPath,
			Monitored:        true,
			SearchNow:        true,
		}
		if defaults.TagID != nil {
			req.TagIDs = []int64{*defaults.TagID}
		}
		if _, err := backend.AddItem(ctx, req); err != nil {
			return fmt.Errorf("add item: %w", err)
		}
	}

	err := e.db.MarkSent(ctx, row.ID, time.Now().UTC())
	if errors.Is(err, database.ErrNotFound) {
		// Sent stamp already taken by an earlier pass.
		return nil
	}
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}

func (e *Engine) fetchCatalog(ctx context.Context, backend syncer.Backend) (map[int64]models.BackendItem, error) {
	items, err := backend.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s catalog: %w", backend.Name(), err)
	}
	catalog := make(map[int64]models.BackendItem, len(items))
	for _, item := range items {
		catalog[item.ExternalID] = item
	}
	return catalog, nil
}

// machineIdentifier returns the Plex server's machine identifier, cached
// alongside the backend defaults so back-to-back rebuilds skip the lookup.
func (e *Engine) machineIdentifier(ctx context.Context) (string, error) {
	const cacheKey = "plex:machine_id"
	if cached, ok := e.defaults.Get(cacheKey); ok {
		if id, ok := cached.(string); ok {
			return id, nil
		}
	}

	id, err := e.plex.GetMachineIdentifier(ctx)
	if err != nil {
		return "", fmt.Errorf("resolve machine identifier: %w", err)
	}
	e.defaults.Set(cacheKey, id)
	return id, nil
}

// resolveDefaults resolves the root folder, quality profile, and optional
// tag used for add requests. The three lookups run concurrently; results
// are cached briefly so back-to-back passes do not re-query the backend.
func (e *Engine) resolveDefaults(ctx context.Context, backend syncer.Backend, cfg config.BackendConfig) (*models.BackendDefaults, error) {
	cacheKey := "defaults:" + backend.Name()
	if cached, ok := e.defaults.Get(cacheKey); ok {
		if d, ok := cached.(*models.BackendDefaults); ok {
			return d, nil
		}
	}

	var (
		wg         sync.WaitGroup
		folders    []models.BackendRootFolder
		profiles   []models.BackendQualityProfile
		tag        *models.BackendTag
		folderErr  error
		profileErr error
		tagErr     error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		folders, folderErr = backend.ListRootFolders(ctx)
	}()
	go func() {
		defer wg.Done()
		profiles, profileErr = backend.ListQualityProfiles(ctx)
	}()
	if cfg.TagName != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tag, tagErr = backend.EnsureTag(ctx, cfg.TagName)
		}()
	}
	wg.Wait()

	if folderErr != nil {
		return nil, fmt.Errorf("list root folders: %w", folderErr)
	}
	if profileErr != nil {
		return nil, fmt.Errorf("list quality profiles: %w", profileErr)
	}
	if tagErr != nil {
		return nil, fmt.Errorf("ensure tag: %w", tagErr)
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("%s has no root folders configured", backend.Name())
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%s has no quality profiles configured", backend.Name())
	}

	defaults := &models.BackendDefaults{
		RootFolderPath:   folders[0].Path,
		QualityProfileID: profiles[0].ID,
	}
	for _, f := range folders {
		if f.Path == cfg.RootFolder {
			defaults.RootFolderPath = f.Path
			break
		}
	}
	for _, p := range profiles {
		if p.Name == cfg.QualityProfile {
			defaults.QualityProfileID = p.ID
			break
		}
	}
	if tag != nil {
		defaults.TagID = &tag.ID
	}

	e.defaults.Set(cacheKey, defaults)
	return defaults, nil
}

// rebuildCollection publishes the dataset's curated collection from the
// current eligible rows. Rows the library has no matching item for are
// counted skipped rather than failing the rebuild.
func (e *Engine) rebuildCollection(ctx context.Context, sectionKey string, mediaType models.MediaType) (*models.CollectionRebuildResult, error) {
	machineID, err := e.machineIdentifier(ctx)
	if err != nil {
		return nil, err
	}

	items, err := e.plex.GetSectionItems(ctx, sectionKey)
	if err != nil {
		return nil, fmt.Errorf("list section items: %w", err)
	}
	byExternalID := syncer.IndexByExternalID(items, mediaType.ExternalSource())

	eligible, err := e.db.ListActive(ctx, sectionKey, mediaType, e.minScore(mediaType))
	if err != nil {
		return nil, fmt.Errorf("load eligible rows: %w", err)
	}

	var mapped []models.Suggestion
	skipped := 0
	for _, row := range eligible {
		if _, ok := byExternalID[row.ExternalID]; ok {
			mapped = append(mapped, row)
		} else {
			skipped++
		}
	}

	ordered := e.orderer.Order(mapped)
	ratingKeys := make([]string, 0, len(ordered))
	for _, row := range ordered {
		ratingKeys = append(ratingKeys, byExternalID[row.ExternalID].RatingKey)
	}

	name := e.collectionName(mediaType)
	result, err := publishCollection(ctx, e.plex, machineID, sectionKey, name, mediaType, ratingKeys, skipped)
	if err != nil {
		metrics.CollectionRebuilds.WithLabelValues(string(mediaType), "error").Inc()
		return nil, err
	}
	metrics.CollectionRebuilds.WithLabelValues(string(mediaType), "success").Inc()
	metrics.CollectionSize.WithLabelValues(name).Set(float64(len(ratingKeys)))
	return result, nil
}
