// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package api

import (
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
)

// maxRequestBody bounds decision and apply request bodies.
const maxRequestBody = 1 << 20 // 1 MiB

// defaultUserID is used when a request names no user. Single-user
// deployments never need to send the header.
const defaultUserID = "default"

// userID resolves the acting user from the X-Curatarr-User header or the
// user query parameter.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-Curatarr-User"); id != "" {
		return id
	}
	if id := r.URL.Query().Get("user"); id != "" {
		return id
	}
	return defaultUserID
}

// getIntParam extracts an integer query parameter with a default value.
func getIntParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}

// decodeBody decodes a JSON request body into dst with a size cap and
// unknown-field rejection.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// generateETag creates a weak ETag from data using FNV-1a.
func generateETag(data []byte) string {
	hash := uint32(2166136261)
	for _, b := range data {
		hash ^= uint32(b)
		hash *= 16777619
	}
	return `"` + strconv.FormatUint(uint64(hash), 16) + `"`
}
