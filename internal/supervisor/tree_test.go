// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// probeService signals when suture first runs it, then blocks until its
// context is canceled.
type probeService struct {
	name    string
	started chan struct{}
	once    bool
}

func newProbeService(name string) *probeService {
	return &probeService{name: name, started: make(chan struct{})}
}

func (p *probeService) Serve(ctx context.Context) error {
	if !p.once {
		p.once = true
		close(p.started)
	}
	<-ctx.Done()
	return ctx.Err()
}

func (p *probeService) String() string { return p.name }

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := NewTree(discardLogger(), TreeConfig{})

	want := DefaultTreeConfig()
	if tree.config != want {
		t.Errorf("config = %+v, want defaults %+v", tree.config, want)
	}
}

func TestNewTreeKeepsExplicitConfig(t *testing.T) {
	cfg := TreeConfig{
		FailureThreshold: 2.0,
		FailureDecay:     10.0,
		FailureBackoff:   time.Second,
		ShutdownTimeout:  time.Second,
	}
	tree := NewTree(discardLogger(), cfg)
	if tree.config != cfg {
		t.Errorf("config = %+v, want %+v", tree.config, cfg)
	}
}

func TestTreeServesAndStopsServices(t *testing.T) {
	tree := NewTree(discardLogger(), TreeConfig{ShutdownTimeout: time.Second})

	apiSvc := newProbeService("api-probe")
	reconcileSvc := newProbeService("reconcile-probe")
	tree.AddAPIService(apiSvc)
	tree.AddReconcileService(reconcileSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	for _, svc := range []*probeService{apiSvc, reconcileSvc} {
		select {
		case <-svc.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("service %s never started", svc)
		}
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("tree returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancel")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil {
		t.Fatalf("UnstoppedServiceReport: %v", err)
	}
	if len(report) != 0 {
		t.Errorf("unstopped services: %v", report)
	}
}
