// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

/*
Package models defines data structures for the Curatarr application.

This package contains all data models used throughout the application:
suggestion store rows, the rejected-title ledger, decision requests and
results, reconciliation reports, API response wrappers, and external API
response models for Plex, Radarr, and Sonarr. It serves as the single source
of truth for data structure definitions.

Model Categories:

 1. Database Models:
    - Suggestion: one suggested title in a dataset, with lifecycle state
    - RejectedTitle: one ledger entry recording a rejection or removal

 2. API Request/Response Models:
    - APIResponse: standard response wrapper
    - Decision / DecisionResult: decision batch submission and outcome
    - ApplyResult: per-dataset reconciliation report

 3. External API Models:
    - Plex*: Plex Media Server REST responses (library sections, items,
    collections, server identity)
    - Backend*: Radarr/Sonarr v3 API resources (catalog items, root
    folders, quality profiles, tags)
*/
package models
