// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"errors"
)

// ErrMediaServerNotConfigured aborts a reconciliation pass before any
// mutation: without the Plex URL and token there is no identity anchor for
// the dataset. The API layer maps it to 502.
var ErrMediaServerNotConfigured = errors.New("media server URL or token not configured")

// ErrApplyInProgress is returned when a reconciliation pass is already
// running for the same (librarySectionKey, mediaType) key. The API layer
// maps it to 409.
var ErrApplyInProgress = errors.New("reconciliation already in progress for this dataset")

// ErrUnsupportedMediaType is returned for media types other than movie and
// show.
var ErrUnsupportedMediaType = errors.New("unsupported media type")
