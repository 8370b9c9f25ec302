// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package suggest

import (
	"math/rand"
	"sync"
	"time"

	"github.com/tomtom215/curatarr/internal/config"
	"github.com/tomtom215/curatarr/internal/models"
)

// Orderer partitions collection candidates into three quality tiers and
// shuffles within each tier. The tier boundaries come from configuration;
// the contract is that a title's tier depends only on its vote average and
// vote count, that items with missing ratings land in the low tier, and
// that the output concatenates high, mid, low.
type Orderer struct {
	thresholds config.OrderingConfig

	// rand.Rand is not safe for concurrent use, and one Orderer is shared
	// by every reconciliation pass. mu covers all rng draws.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewOrderer builds an Orderer with the given thresholds. A nil rng gets a
// time-seeded source; tests inject a fixed seed for reproducibility.
func NewOrderer(thresholds config.OrderingConfig, rng *rand.Rand) *Orderer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano())) //nolint:gosec // ordering shuffle, not security
	}
	return &Orderer{thresholds: thresholds, rng: rng}
}

// Order returns the suggestions arranged high tier first, then mid, then
// low, with each tier independently shuffled. The input slice is not
// modified.
func (o *Orderer) Order(items []models.Suggestion) []models.Suggestion {
	var high, mid, low []models.Suggestion

	for _, item := range items {
		switch o.tier(item) {
		case tierHigh:
			high = append(high, item)
		case tierMid:
			mid = append(mid, item)
		default:
			low = append(low, item)
		}
	}

	o.mu.Lock()
	o.shuffle(high)
	o.shuffle(mid)
	o.shuffle(low)
	o.mu.Unlock()

	ordered := make([]models.Suggestion, 0, len(items))
	ordered = append(ordered, high...)
	ordered = append(ordered, mid...)
	ordered = append(ordered, low...)
	return ordered
}

type tier int

const (
	tierHigh tier = iota
	tierMid
	tierLow
)

func (o *Orderer) tier(item models.Suggestion) tier {
	if item.VoteAverage == nil || item.VoteCount == nil {
		return tierLow
	}
	avg := *item.VoteAverage
	count := *item.VoteCount

	if avg >= o.thresholds.HighVoteAverage && count >= o.thresholds.HighVoteCount {
		return tierHigh
	}
	if avg >= o.thresholds.MidVoteAverage {
		return tierMid
	}
	return tierLow
}

func (o *Orderer) shuffle(items []models.Suggestion) {
	o.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
