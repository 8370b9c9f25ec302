// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"sync"
)

// keyLock serializes reconciliation per dataset key. Locks are non-blocking:
// a second caller for the same key is rejected rather than queued so that
// concurrent apply requests surface a conflict instead of piling up behind
// a slow backend.
type keyLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newKeyLock() *keyLock {
	return &keyLock{held: make(map[string]struct{})}
}

// TryLock acquires the lock for key, returning false if it is already held.
func (l *keyLock) TryLock(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[key]; ok {
		return false
	}
	l.held[key] = struct{}{}
	return true
}

// Unlock releases the lock for key. Unlocking a key that is not held is a
// no-op.
func (l *keyLock) Unlock(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
}

func datasetKey(librarySectionKey, mediaType string) string {
	return librarySectionKey + "|" + mediaType
}
