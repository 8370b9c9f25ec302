// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/curatarr/internal/models"
)

// fakeBackend is a scriptable Backend for breaker tests.
type fakeBackend struct {
	catalog    []models.BackendItem
	catalogErr error
	added      []models.BackendAddRequest
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) ListCatalog(context.Context) ([]models.BackendItem, error) {
	return f.catalog, f.catalogErr
}

func (f *fakeBackend) AddItem(_ context.Context, req models.BackendAddRequest) (*models.BackendItem, error) {
	f.added = append(f.added, req)
	return &models.BackendItem{ID: int64(len(f.added)), Title: req.Title, ExternalID: req.ExternalID, Monitored: req.Monitored}, nil
}

func (f *fakeBackend) SetMonitored(context.Context, int64, bool) error { return nil }

func (f *fakeBackend) ListRootFolders(context.Context) ([]models.BackendRootFolder, error) {
	return []models.BackendRootFolder{{ID: 1, Path: "/movies"}}, nil
}

func (f *fakeBackend) ListQualityProfiles(context.Context) ([]models.BackendQualityProfile, error) {
	return []models.BackendQualityProfile{{ID: 1, Name: "HD-1080p"}}, nil
}

func (f *fakeBackend) ListTags(context.Context) ([]models.BackendTag, error) {
	return nil, nil
}

func (f *fakeBackend) EnsureTag(_ context.Context, label string) (*models.BackendTag, error) {
	return &models.BackendTag{ID: 1, Label: label}, nil
}

func TestCircuitBreakerPassesThroughSuccess(t *testing.T) {
	fake := &fakeBackend{catalog: []models.BackendItem{{ID: 1, ExternalID: 550, Title: "Fight Club"}}}
	wrapped := NewCircuitBreakerBackend(fake)

	items, err := wrapped.ListCatalog(context.Background())
	if err != nil {
		t.Fatalf("ListCatalog failed: %v", err)
	}
	if len(items) != 1 || items[0].ExternalID != 550 {
		t.Errorf("expected catalog passthrough, got %+v", items)
	}
}

func TestCircuitBreakerPropagatesErrors(t *testing.T) {
	wantErr := errors.New("connection refused")
	fake := &fakeBackend{catalogErr: wantErr}
	wrapped := NewCircuitBreakerBackend(fake)

	_, err := wrapped.ListCatalog(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("expected underlying error, got %v", err)
	}
}

func TestCircuitBreakerHandlesNilResults(t *testing.T) {
	fake := &fakeBackend{} // nil catalog, nil tags
	wrapped := NewCircuitBreakerBackend(fake)

	items, err := wrapped.ListCatalog(context.Background())
	if err != nil {
		t.Fatalf("ListCatalog failed: %v", err)
	}
	if items != nil {
		t.Errorf("expected nil catalog passthrough, got %+v", items)
	}

	tags, err := wrapped.ListTags(context.Background())
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if tags != nil {
		t.Errorf("expected nil tags passthrough, got %+v", tags)
	}
}

func TestCircuitBreakerWrapsWrites(t *testing.T) {
	fake := &fakeBackend{}
	wrapped := NewCircuitBreakerBackend(fake)

	created, err := wrapped.AddItem(context.Background(), models.BackendAddRequest{Title: "Heat", ExternalID: 949, Monitored: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if created.ExternalID != 949 {
		t.Errorf("expected created item, got %+v", created)
	}
	if err := wrapped.SetMonitored(context.Background(), 1, false); err != nil {
		t.Fatalf("SetMonitored failed: %v", err)
	}
}
