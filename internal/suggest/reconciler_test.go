// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/curatarr/internal/models"
)

func TestApplyFailsFastWithoutMediaServer(t *testing.T) {
	cfg := testConfig()
	cfg.Plex.Token = ""
	e, _ := newTestEngine(t, cfg, newFakeMediaServer(), newFakeBackend())

	_, err := e.Apply(context.Background(), "1", models.MediaTypeMovie)
	if !errors.Is(err, ErrMediaServerNotConfigured) {
		t.Fatalf("expected ErrMediaServerNotConfigured, got %v", err)
	}
}

func TestApplyRejectsUnknownMediaType(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(), newFakeMediaServer(), newFakeBackend())

	_, err := e.Apply(context.Background(), "1", "music")
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestApplyConflictsWithRunningPass(t *testing.T) {
	e, _ := newTestEngine(t, testConfig(), newFakeMediaServer(), newFakeBackend())

	if !e.locks.TryLock(datasetKey("1", "movie")) {
		t.Fatal("failed to pre-acquire dataset lock")
	}
	defer e.locks.Unlock(datasetKey("1", "movie"))

	_, err := e.Apply(context.Background(), "1", models.MediaTypeMovie)
	if !errors.Is(err, ErrApplyInProgress) {
		t.Fatalf("expected ErrApplyInProgress, got %v", err)
	}

	// A different dataset is unaffected.
	if _, err := e.Apply(context.Background(), "1", models.MediaTypeShow); err != nil {
		t.Fatalf("show dataset apply failed: %v", err)
	}
}

func TestApplySendsApprovedRows(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	row := seedSuggestion(t, db, movieSuggestion(550, models.ApprovalApproved))

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !result.Enabled {
		t.Error("expected backend enabled")
	}
	if result.Sent != 1 {
		t.Errorf("sent = %d, want 1", result.Sent)
	}
	if len(result.Failures) != 0 {
		t.Errorf("unexpected failures: %+v", result.Failures)
	}

	if len(backend.added) != 1 {
		t.Fatalf("backend adds = %d, want 1", len(backend.added))
	}
	add := backend.added[0]
	if add.ExternalID != 550 {
		t.Errorf("add external id = %d, want 550", add.ExternalID)
	}
	if !add.Monitored || !add.SearchNow {
		t.Errorf("add request not monitored+search: %+v", add)
	}
	if add.RootFolderPath != "/movies" {
		t.Errorf("root folder = %q, want /movies", add.RootFolderPath)
	}
	if add.QualityProfileID != 4 {
		t.Errorf("quality profile = %d, want 4", add.QualityProfileID)
	}

	got, err := db.GetSuggestion(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetSuggestion failed: %v", err)
	}
	if got.SentToBackendAt == nil {
		t.Error("sent_to_backend_at not stamped")
	}
	if got.DownloadApproval != models.ApprovalNone {
		t.Errorf("approval after send = %q, want none", got.DownloadApproval)
	}
}

func TestApplyBoundsAddPhaseByApprovedBatchCap(t *testing.T) {
	cfg := testConfig()
	cfg.Suggest.ApprovedBatchCap = 2
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, db := newTestEngine(t, cfg, plex, backend)
	ctx := context.Background()

	for _, id := range []int64{550, 551, 552} {
		seedSuggestion(t, db, movieSuggestion(id, models.ApprovalApproved))
	}

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Sent != 2 {
		t.Errorf("sent = %d, want 2 (capped)", result.Sent)
	}
	if len(backend.added) != 2 {
		t.Errorf("backend adds = %d, want 2", len(backend.added))
	}

	// The overflow row stays approved for the next pass.
	result, err = e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if result.Sent != 1 {
		t.Errorf("second pass sent = %d, want 1", result.Sent)
	}
}

func TestApplyNeverSendsTwice(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	row := seedSuggestion(t, db, movieSuggestion(550, models.ApprovalApproved))

	if _, err := e.Apply(ctx, "1", models.MediaTypeMovie); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	// A stale approval on an already-sent row must not trigger a second
	// add even if the approval flag is flipped back.
	if err := db.UpdateApproval(ctx, row.ID, models.ApprovalApproved); err != nil {
		t.Fatalf("re-approve failed: %v", err)
	}

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("second apply failed: %v", err)
	}
	if len(backend.added) != 1 {
		t.Errorf("backend adds = %d after two passes, want 1", len(backend.added))
	}
	if len(result.Failures) != 0 {
		t.Errorf("unexpected failures: %+v", result.Failures)
	}
}

func TestApplyRemonitorsTitleAlreadyInCatalog(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	backend.catalog = []models.BackendItem{
		{ID: 77, ExternalID: 550, Title: "Fight Club", Monitored: false},
	}
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	seedSuggestion(t, db, movieSuggestion(550, models.ApprovalApproved))

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Sent != 1 {
		t.Errorf("sent = %d, want 1", result.Sent)
	}
	if len(backend.added) != 0 {
		t.Errorf("expected no add for item already in catalog, got %d", len(backend.added))
	}
	if len(backend.monitorCalls) != 1 || backend.monitorCalls[0].id != 77 || !backend.monitorCalls[0].monitored {
		t.Errorf("expected re-monitor of catalog id 77, got %+v", backend.monitorCalls)
	}
}

func TestApplyUnmonitorsSentRejectedRows(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	backend.catalog = []models.BackendItem{
		{ID: 11, ExternalID: 100, Monitored: true},
	}
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	// Row 100 was sent earlier, then rejected. Row 200 was rejected but
	// never sent; it needs no backend work.
	sent := seedSuggestion(t, db, movieSuggestion(100, models.ApprovalApproved))
	if _, err := e.Apply(ctx, "1", models.MediaTypeMovie); err != nil {
		t.Fatalf("seeding apply failed: %v", err)
	}
	if err := db.UpdateApproval(ctx, sent.ID, models.ApprovalRejected); err != nil {
		t.Fatalf("reject sent row failed: %v", err)
	}
	seedSuggestion(t, db, movieSuggestion(200, models.ApprovalRejected))

	backend.monitorCalls = nil

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Unmonitored != 1 {
		t.Errorf("unmonitored = %d, want 1", result.Unmonitored)
	}
	if len(backend.monitorCalls) != 1 || backend.monitorCalls[0].id != 11 || backend.monitorCalls[0].monitored {
		t.Errorf("expected unmonitor of catalog id 11, got %+v", backend.monitorCalls)
	}
	if result.DatasetRemoved != 2 {
		t.Errorf("dataset removed = %d, want 2", result.DatasetRemoved)
	}

	remaining, err := db.ListSuggestions(ctx, "1", models.MediaTypeMovie, models.ModeReview, 0)
	if err != nil {
		t.Fatalf("ListSuggestions failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("expected rejected rows purged, %d remain", len(remaining))
	}
}

func TestApplySkipsRejectedRowMissingFromCatalog(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	sent := seedSuggestion(t, db, movieSuggestion(100, models.ApprovalApproved))
	if _, err := e.Apply(ctx, "1", models.MediaTypeMovie); err != nil {
		t.Fatalf("seeding apply failed: %v", err)
	}
	if err := db.UpdateApproval(ctx, sent.ID, models.ApprovalRejected); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	// Catalog no longer contains the title (user removed it in Radarr).
	backend.catalog = nil
	backend.monitorCalls = nil

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Unmonitored != 0 {
		t.Errorf("unmonitored = %d, want 0", result.Unmonitored)
	}
	if len(result.Failures) != 0 {
		t.Errorf("missing catalog item must not be a failure: %+v", result.Failures)
	}
	if result.DatasetRemoved != 1 {
		t.Errorf("dataset removed = %d, want 1", result.DatasetRemoved)
	}
}

func TestApplyCollectsPerItemFailures(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	backend.addErr = errors.New("radarr exploded")
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	row := seedSuggestion(t, db, movieSuggestion(550, models.ApprovalApproved))

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply should swallow per-item failures, got %v", err)
	}
	if result.Sent != 0 {
		t.Errorf("sent = %d, want 0", result.Sent)
	}
	if len(result.Failures) != 1 {
		t.Fatalf("failures = %d, want 1", len(result.Failures))
	}
	f := result.Failures[0]
	if f.Phase != "add" || f.ExternalID != 550 {
		t.Errorf("unexpected failure record: %+v", f)
	}

	// The failed row keeps its approval so the next pass retries it.
	got, err := db.GetSuggestion(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetSuggestion failed: %v", err)
	}
	if got.DownloadApproval != models.ApprovalApproved {
		t.Errorf("failed row approval = %q, want approved", got.DownloadApproval)
	}
	if got.SentToBackendAt != nil {
		t.Error("failed row must not be stamped sent")
	}
}

func TestApplyWithBackendDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Radarr.Enabled = false
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, db := newTestEngine(t, cfg, plex, backend)
	ctx := context.Background()

	seedSuggestion(t, db, movieSuggestion(550, models.ApprovalApproved))
	seedSuggestion(t, db, movieSuggestion(551, models.ApprovalRejected))

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Enabled {
		t.Error("expected Enabled=false")
	}
	if result.Sent != 0 || result.Unmonitored != 0 {
		t.Errorf("disabled backend must not send or unmonitor: %+v", result)
	}
	if len(backend.added) != 0 || len(backend.monitorCalls) != 0 {
		t.Error("backend was called despite being disabled")
	}
	// Rejected rows are still purged and the collection still rebuilt.
	if result.DatasetRemoved != 1 {
		t.Errorf("dataset removed = %d, want 1", result.DatasetRemoved)
	}
}

func TestApplySkipsAddPhaseWhenApprovalNotRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Suggest.MovieApprovalRequired = false
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, db := newTestEngine(t, cfg, plex, backend)
	ctx := context.Background()

	seedSuggestion(t, db, movieSuggestion(550, models.ApprovalApproved))

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Sent != 0 || len(backend.added) != 0 {
		t.Error("add phase ran despite approval not being required")
	}
}

func TestApplyRebuildsCollection(t *testing.T) {
	plex := newFakeMediaServer()
	plex.addLibraryMovie("1", "rk-550", 550)
	plex.addLibraryMovie("1", "rk-600", 600)
	backend := newFakeBackend()
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	// Two active rows present in the library, one active row the library
	// does not have, and one below the score floor.
	for _, seed := range []struct {
		externalID int64
		points     int
		active     bool
	}{
		{550, 10, true},
		{600, 8, true},
		{700, 10, true}, // not in library
		{800, 0, true},  // below MovieMinScore
	} {
		s := movieSuggestion(seed.externalID, models.ApprovalNone)
		s.Points = seed.points
		seedSuggestion(t, db, s)
		if seed.active {
			if err := db.SetStatus(ctx, s.ID, models.StatusActive); err != nil {
				t.Fatalf("SetStatus failed: %v", err)
			}
		}
	}

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if result.Collection == nil {
		t.Fatal("expected collection rebuild result")
	}
	if result.Collection.Name != "Immaculate Taste" {
		t.Errorf("collection name = %q", result.Collection.Name)
	}
	if result.Collection.Added != 2 {
		t.Errorf("added = %d, want 2", result.Collection.Added)
	}
	if result.Collection.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Collection.Skipped)
	}

	if len(plex.created) != 1 {
		t.Fatalf("collections created = %d, want 1", len(plex.created))
	}
	created := plex.created[0]
	if created.title != "Immaculate Taste" || created.plexType != plexTypeMovie {
		t.Errorf("unexpected create call: %+v", created)
	}
	if len(created.ratingKeys) != 2 {
		t.Errorf("collection items = %d, want 2", len(created.ratingKeys))
	}
	keys := map[string]bool{}
	for _, k := range created.ratingKeys {
		keys[k] = true
	}
	if !keys["rk-550"] || !keys["rk-600"] {
		t.Errorf("collection keys = %v, want rk-550 and rk-600", created.ratingKeys)
	}
}

func TestApplyCachesMachineIdentifier(t *testing.T) {
	plex := newFakeMediaServer()
	backend := newFakeBackend()
	e, _ := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := e.Apply(ctx, "1", models.MediaTypeMovie); err != nil {
			t.Fatalf("apply %d failed: %v", i, err)
		}
	}

	if plex.machineIDCalls != 1 {
		t.Errorf("machine identifier fetched %d times across 3 passes, want 1", plex.machineIDCalls)
	}
}

func TestApplyDoesNotCacheFailedMachineLookup(t *testing.T) {
	plex := newFakeMediaServer()
	plex.machineErr = errors.New("plex unreachable")
	backend := newFakeBackend()
	e, _ := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	if _, err := e.Apply(ctx, "1", models.MediaTypeMovie); err == nil {
		t.Fatal("expected apply to fail while Plex is unreachable")
	}

	plex.machineErr = nil
	if _, err := e.Apply(ctx, "1", models.MediaTypeMovie); err != nil {
		t.Fatalf("apply after recovery failed: %v", err)
	}
	if plex.machineIDCalls != 2 {
		t.Errorf("machine identifier fetched %d times, want 2 (failure not cached)", plex.machineIDCalls)
	}
}

func TestApplyRecreatesExistingCollection(t *testing.T) {
	plex := newFakeMediaServer()
	plex.addLibraryMovie("1", "rk-550", 550)
	plex.collections["1"] = []models.PlexCollection{
		{RatingKey: "old-coll", Title: "Immaculate Taste"},
	}
	plex.collectionItems["old-coll"] = []models.PlexLibraryItem{
		{RatingKey: "rk-550"},
		{RatingKey: "rk-gone"},
	}
	backend := newFakeBackend()
	e, db := newTestEngine(t, testConfig(), plex, backend)
	ctx := context.Background()

	s := seedSuggestion(t, db, movieSuggestion(550, models.ApprovalNone))
	if err := db.SetStatus(ctx, s.ID, models.StatusActive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	result, err := e.Apply(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if len(plex.deleted) != 1 || plex.deleted[0] != "old-coll" {
		t.Errorf("expected old collection deleted, got %v", plex.deleted)
	}
	if len(plex.created) != 1 {
		t.Fatalf("collections created = %d, want 1", len(plex.created))
	}
	if result.Collection.Added != 0 {
		t.Errorf("added = %d, want 0 (rk-550 already present)", result.Collection.Added)
	}
	if result.Collection.Removed != 1 {
		t.Errorf("removed = %d, want 1 (rk-gone)", result.Collection.Removed)
	}
}

func TestApplyLeavesCollectionWhenNoEligibleRows(t *testing.T) {
	plex := newFakeMediaServer()
	plex.collections["1"] = []models.PlexCollection{
		{RatingKey: "old-coll", Title: "Immaculate Taste"},
	}
	backend := newFakeBackend()
	e, _ := newTestEngine(t, testConfig(), plex, backend)

	result, err := e.Apply(context.Background(), "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(plex.deleted) != 0 || len(plex.created) != 0 {
		t.Error("empty candidate set must not touch the existing collection")
	}
	if result.Collection == nil || result.Collection.Added != 0 {
		t.Errorf("unexpected collection result: %+v", result.Collection)
	}
}
