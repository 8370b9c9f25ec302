// Curatarr - Suggestion Lifecycle & Curated Collection Reconciliation for Plex
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatarr

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/curatarr/internal/logging"
	"github.com/tomtom215/curatarr/internal/metrics"
	"github.com/tomtom215/curatarr/internal/models"
)

// CircuitBreakerBackend wraps a Backend with the circuit breaker pattern so
// a flapping Radarr/Sonarr cannot burn a whole reconciliation pass retrying
// a dead service.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout calculations. Tests should mock the underlying Backend rather
// than the breaker.
type CircuitBreakerBackend struct {
	backend Backend
	cb      *gobreaker.CircuitBreaker[interface{}]
	name    string
}

// NewCircuitBreakerBackend wraps a backend client. Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens at a 60% failure rate with a minimum of 10 requests
func NewCircuitBreakerBackend(backend Backend) *CircuitBreakerBackend {
	cbName := backend.Name() + "-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().Str("breaker", cbName).Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerBackend{
		backend: backend,
		cb:      cb,
		name:    cbName,
	}
}

// execute wraps one backend call with circuit breaker protection.
func (b *CircuitBreakerBackend) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		// A nil slice or pointer round-trips through interface{} as an
		// untyped nil; treat it as the zero value, not a cast failure.
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func (b *CircuitBreakerBackend) Name() string { return b.backend.Name() }

func (b *CircuitBreakerBackend) ListCatalog(ctx context.Context) ([]models.BackendItem, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.backend.ListCatalog(ctx)
	})
	return castResult[[]models.BackendItem](result, err)
}

func (b *CircuitBreakerBackend) AddItem(ctx context.Context, req models.BackendAddRequest) (*models.BackendItem, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.backend.AddItem(ctx, req)
	})
	return castResult[*models.BackendItem](result, err)
}

func (b *CircuitBreakerBackend) SetMonitored(ctx context.Context, id int64, monitored bool) error {
	_, err := b.execute(func() (interface{}, error) {
		return nil, b.backend.SetMonitored(ctx, id, monitored)
	})
	return err
}

func (b *CircuitBreakerBackend) ListRootFolders(ctx context.Context) ([]models.BackendRootFolder, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.backend.ListRootFolders(ctx)
	})
	return castResult[[]models.BackendRootFolder](result, err)
}

func (b *CircuitBreakerBackend) ListQualityProfiles(ctx context.Context) ([]models.BackendQualityProfile, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.backend.ListQualityProfiles(ctx)
	})
	return castResult[[]models.BackendQualityProfile](result, err)
}

func (b *CircuitBreakerBackend) ListTags(ctx context.Context) ([]models.BackendTag, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.backend.ListTags(ctx)
	})
	return castResult[[]models.BackendTag](result, err)
}

func (b *CircuitBreakerBackend) EnsureTag(ctx context.Context, label string) (*models.BackendTag, error) {
	result, err := b.execute(func() (interface{}, error) {
		return b.backend.EnsureTag(ctx, label)
	})
	return castResult[*models.BackendTag](result, err)
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
