// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/models"
	"github.com/tomtom215/curatarr/internal/suggest"
)

type applyCall struct {
	sectionKey string
	mediaType  models.MediaType
}

// fakeReconciler records Apply calls and returns scripted errors per section.
type fakeReconciler struct {
	mu    sync.Mutex
	calls []applyCall
	errs  map[string]error
}

func (f *fakeReconciler) Apply(_ context.Context, sectionKey string, mediaType models.MediaType) (*models.ApplyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, applyCall{sectionKey: sectionKey, mediaType: mediaType})
	if err := f.errs[sectionKey]; err != nil {
		return nil, err
	}
	return &models.ApplyResult{Enabled: true}, nil
}

func (f *fakeReconciler) snapshot() []applyCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]applyCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestSchedulerServiceRunsEachDataset(t *testing.T) {
	reconciler := &fakeReconciler{}
	datasets := []config.DatasetConfig{
		{LibrarySectionKey: "1", MediaType: "movie"},
		{LibrarySectionKey: "2", MediaType: "show"},
	}
	svc := NewSchedulerService(reconciler, 20*time.Millisecond, datasets)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(reconciler.snapshot()) < 2 {
		select {
		case <-deadline:
			t.Fatal("scheduler never completed a pass")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	calls := reconciler.snapshot()
	if calls[0].sectionKey != "1" || calls[0].mediaType != models.MediaTypeMovie {
		t.Errorf("first call = %+v", calls[0])
	}
	if calls[1].sectionKey != "2" || calls[1].mediaType != models.MediaTypeShow {
		t.Errorf("second call = %+v", calls[1])
	}
}

func TestSchedulerServiceSkipsInvalidMediaType(t *testing.T) {
	reconciler := &fakeReconciler{}
	svc := NewSchedulerService(reconciler, time.Hour, []config.DatasetConfig{
		{LibrarySectionKey: "1", MediaType: "music"},
		{LibrarySectionKey: "2", MediaType: "movie"},
	})

	svc.runPass(context.Background())

	calls := reconciler.snapshot()
	if len(calls) != 1 {
		t.Fatalf("Apply called %d times, want 1", len(calls))
	}
	if calls[0].sectionKey != "2" {
		t.Errorf("Apply called for section %q, want 2", calls[0].sectionKey)
	}
}

func TestSchedulerServiceToleratesErrors(t *testing.T) {
	reconciler := &fakeReconciler{
		errs: map[string]error{
			"1": suggest.ErrApplyInProgress,
			"2": errors.New("radarr unreachable"),
		},
	}
	svc := NewSchedulerService(reconciler, time.Hour, []config.DatasetConfig{
		{LibrarySectionKey: "1", MediaType: "movie"},
		{LibrarySectionKey: "2", MediaType: "show"},
		{LibrarySectionKey: "3", MediaType: "movie"},
	})

	// Errors on earlier datasets must not abort the pass.
	svc.runPass(context.Background())

	if got := len(reconciler.snapshot()); got != 3 {
		t.Errorf("Apply called %d times, want 3", got)
	}
}

func TestSchedulerServiceDefaults(t *testing.T) {
	svc := NewSchedulerService(&fakeReconciler{}, 0, nil)
	if svc.interval != 6*time.Hour {
		t.Errorf("interval = %v, want 6h default", svc.interval)
	}
	if svc.String() != "reconcile-scheduler" {
		t.Errorf("String() = %q", svc.String())
	}
}
