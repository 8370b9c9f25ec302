// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package models

// DecisionAction is one user action on a suggestion row.
type DecisionAction string

const (
	ActionApprove DecisionAction = "approve"
	ActionReject  DecisionAction = "reject"
	// ActionRemove is an alias for reject used when the title is already
	// present in the library; the ledger records it with reason "remove".
	ActionRemove DecisionAction = "remove"
	// ActionKeep acknowledges the suggestion without changing its approval
	// state. It still counts as applied.
	ActionKeep DecisionAction = "keep"
	ActionUndo DecisionAction = "undo"
)

// Valid reports whether the action is one of the accepted decision verbs.
func (a DecisionAction) Valid() bool {
	switch a {
	case ActionApprove, ActionReject, ActionRemove, ActionKeep, ActionUndo:
		return true
	}
	return false
}

// Decision is one {id, action} pair in a decision batch. ID refers to a
// suggestion row, not an external id.
type Decision struct {
	ID     int64          `json:"id"`
	Action DecisionAction `json:"action"`
}

// DecisionBatch is the request body for recording a batch of decisions
// against one dataset.
type DecisionBatch struct {
	LibrarySectionKey string     `json:"library_section_key"`
	MediaType         MediaType  `json:"media_type"`
	Decisions         []Decision `json:"decisions"`
}

// DecisionResult summarizes a processed batch. Applied + Ignored always
// equals the batch length: a malformed or stale entry is counted ignored and
// never aborts the rest of the batch.
type DecisionResult struct {
	OK      bool `json:"ok"`
	Applied int  `json:"applied"`
	Ignored int  `json:"ignored"`
}
