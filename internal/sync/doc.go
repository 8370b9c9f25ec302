// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

/*
Package sync provides the upstream API clients Curatarr reconciles against:

  - PlexClient: Plex Media Server REST API (library sections, items with
    external GUIDs, collection create/delete)
  - RadarrClient / SonarrClient: download-automation backends behind the
    shared Backend interface (catalog, add-and-search, monitor flags, root
    folders, quality profiles, tags)
  - CircuitBreakerBackend: gobreaker wrapper protecting reconciliation
    passes from a flapping backend

All clients handle HTTP 429 with exponential backoff and respect the
Retry-After header. Backend clients additionally pace their requests with a
client-side rate limiter so per-row reconciliation loops stay predictable
for the backend.
*/
package sync
