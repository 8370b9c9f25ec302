// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/models"
)

// setupTestDB creates an in-memory DuckDB instance for one test. DuckDB CGO
// calls can hang under heavy parallelism, so tests sharing this helper do
// not call t.Parallel().
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(&config.DatabaseConfig{
		Path:      ":memory:",
		MaxMemory: "512MB",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

func newTestSuggestion(externalID int64) *models.Suggestion {
	voteAvg := 7.8
	voteCount := 1200
	return &models.Suggestion{
		LibrarySectionKey: "1",
		MediaType:         models.MediaTypeMovie,
		ExternalID:        externalID,
		Title:             "Fight Club",
		Year:              1999,
		Status:            models.StatusPending,
		DownloadApproval:  models.ApprovalPending,
		Points:            42,
		VoteAverage:       &voteAvg,
		VoteCount:         &voteCount,
	}
}

func TestNewInitializesSchema(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.Ping(ctx); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	s := newTestSuggestion(550)
	if err := db.UpsertSuggestion(ctx, s); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}
	if s.ID == 0 {
		t.Error("expected upsert to populate row id")
	}
}

func TestUpsertSuggestionPreservesLifecycleFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestSuggestion(550)
	if err := db.UpsertSuggestion(ctx, s); err != nil {
		t.Fatalf("initial upsert failed: %v", err)
	}
	if err := db.UpdateApproval(ctx, s.ID, models.ApprovalApproved); err != nil {
		t.Fatalf("UpdateApproval failed: %v", err)
	}

	// A candidate-generation refresh of the same title must not reset the
	// recorded decision.
	refresh := newTestSuggestion(550)
	refresh.Title = "Fight Club (1999)"
	refresh.Points = 38
	if err := db.UpsertSuggestion(ctx, refresh); err != nil {
		t.Fatalf("refresh upsert failed: %v", err)
	}
	if refresh.ID != s.ID {
		t.Errorf("expected refresh to hit existing row %d, got %d", s.ID, refresh.ID)
	}

	got, err := db.GetSuggestion(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSuggestion failed: %v", err)
	}
	if got.DownloadApproval != models.ApprovalApproved {
		t.Errorf("expected approval to survive refresh, got %q", got.DownloadApproval)
	}
	if got.Title != "Fight Club (1999)" {
		t.Errorf("expected refreshed title, got %q", got.Title)
	}
	if got.Points != 38 {
		t.Errorf("expected refreshed points 38, got %d", got.Points)
	}
}

func TestUpdateApprovalCapturesPriorState(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestSuggestion(550)
	if err := db.UpsertSuggestion(ctx, s); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}

	if err := db.UpdateApproval(ctx, s.ID, models.ApprovalRejected); err != nil {
		t.Fatalf("UpdateApproval failed: %v", err)
	}

	got, err := db.GetSuggestion(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSuggestion failed: %v", err)
	}
	if got.DownloadApproval != models.ApprovalRejected {
		t.Errorf("expected rejected, got %q", got.DownloadApproval)
	}
	if got.PriorApproval == nil || *got.PriorApproval != models.ApprovalPending {
		t.Errorf("expected prior approval pending, got %v", got.PriorApproval)
	}
}

func TestUpdateApprovalMissingRow(t *testing.T) {
	db := setupTestDB(t)

	err := db.UpdateApproval(context.Background(), 9999, models.ApprovalApproved)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkSentIsOneShot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	s := newTestSuggestion(550)
	if err := db.UpsertSuggestion(ctx, s); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}
	if err := db.UpdateApproval(ctx, s.ID, models.ApprovalApproved); err != nil {
		t.Fatalf("UpdateApproval failed: %v", err)
	}

	sentAt := time.Now().UTC().Truncate(time.Second)
	if err := db.MarkSent(ctx, s.ID, sentAt); err != nil {
		t.Fatalf("first MarkSent failed: %v", err)
	}

	got, err := db.GetSuggestion(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSuggestion failed: %v", err)
	}
	if got.SentToBackendAt == nil {
		t.Fatal("expected sent_to_backend_at to be set")
	}
	if got.DownloadApproval != models.ApprovalNone {
		t.Errorf("expected approval reset to none after send, got %q", got.DownloadApproval)
	}

	// A second stamp must fail: the gate against duplicate sends.
	err = db.MarkSent(ctx, s.ID, time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on repeat MarkSent, got %v", err)
	}
}

func TestListSuggestionsModes(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	pendingRow := newTestSuggestion(100)
	if err := db.UpsertSuggestion(ctx, pendingRow); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}
	noneRow := newTestSuggestion(200)
	noneRow.DownloadApproval = models.ApprovalNone
	if err := db.UpsertSuggestion(ctx, noneRow); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}

	pending, err := db.ListSuggestions(ctx, "1", models.MediaTypeMovie, models.ModePendingApproval, 0)
	if err != nil {
		t.Fatalf("ListSuggestions pendingApproval failed: %v", err)
	}
	if len(pending) != 1 || pending[0].ExternalID != 100 {
		t.Errorf("expected one pending row with external id 100, got %+v", pending)
	}

	review, err := db.ListSuggestions(ctx, "1", models.MediaTypeMovie, models.ModeReview, 0)
	if err != nil {
		t.Fatalf("ListSuggestions review failed: %v", err)
	}
	if len(review) != 2 {
		t.Errorf("expected two rows in review mode, got %d", len(review))
	}

	// Other datasets are invisible.
	other, err := db.ListSuggestions(ctx, "2", models.MediaTypeMovie, models.ModeReview, 0)
	if err != nil {
		t.Fatalf("ListSuggestions other section failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no rows for other section, got %d", len(other))
	}
}

func TestListByApprovalRespectsLimit(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		s := newTestSuggestion(i)
		s.DownloadApproval = models.ApprovalRejected
		if err := db.UpsertSuggestion(ctx, s); err != nil {
			t.Fatalf("UpsertSuggestion failed: %v", err)
		}
	}

	rows, err := db.ListByApproval(ctx, "1", models.MediaTypeMovie, models.ApprovalRejected, 3)
	if err != nil {
		t.Fatalf("ListByApproval failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected bounded read of 3 rows, got %d", len(rows))
	}
	// Insertion order: ids ascending.
	for i := 1; i < len(rows); i++ {
		if rows[i].ID < rows[i-1].ID {
			t.Errorf("expected insertion order, got ids %d before %d", rows[i-1].ID, rows[i].ID)
		}
	}
}

func TestDeleteRejectedRows(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rejected := newTestSuggestion(1)
	rejected.DownloadApproval = models.ApprovalRejected
	if err := db.UpsertSuggestion(ctx, rejected); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}
	kept := newTestSuggestion(2)
	if err := db.UpsertSuggestion(ctx, kept); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}

	n, err := db.DeleteRejectedRows(ctx, "1", models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("DeleteRejectedRows failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row removed, got %d", n)
	}

	if _, err := db.GetSuggestion(ctx, rejected.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected rejected row to be gone, got %v", err)
	}
	if _, err := db.GetSuggestion(ctx, kept.ID); err != nil {
		t.Errorf("expected kept row to survive, got %v", err)
	}
}

func TestListActiveAppliesMinPoints(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	active := newTestSuggestion(1)
	if err := db.UpsertSuggestion(ctx, active); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}
	if err := db.SetStatus(ctx, active.ID, models.StatusActive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	lowScore := newTestSuggestion(2)
	lowScore.Points = 0
	if err := db.UpsertSuggestion(ctx, lowScore); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}
	if err := db.SetStatus(ctx, lowScore.ID, models.StatusActive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	stillPending := newTestSuggestion(3)
	if err := db.UpsertSuggestion(ctx, stillPending); err != nil {
		t.Fatalf("UpsertSuggestion failed: %v", err)
	}

	rows, err := db.ListActive(ctx, "1", models.MediaTypeMovie, 1)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(rows) != 1 || rows[0].ExternalID != 1 {
		t.Errorf("expected only the scored active row, got %+v", rows)
	}
}

func TestGetSuggestionNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetSuggestion(context.Background(), 12345)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
