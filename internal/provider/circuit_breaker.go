// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
)

const breakerName = "gps-provider"

// breaker wraps provider HTTP attempts with a circuit breaker.
//
// Only transient failures count against the breaker. A 404 or an expired
// token says nothing about provider availability.
//
// The breaker uses real time for its interval and open timeout; tests drive
// it through request outcomes, not the clock.
type breaker struct {
	cb   *gobreaker.CircuitBreaker[[]byte]
	name string
}

// Circuit breaker configuration:
// - Max 3 requests in half-open state
// - 1 minute measurement window
// - 2 minute open timeout
// - Opens at >= 60% failures with at least 10 requests
func newBreaker(name string) *breaker {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", stateToString(from)).Str("to", stateToString(to)).Msg("[CIRCUIT BREAKER] State transition")
			metrics.RecordCircuitBreakerTransition(name, stateToString(from), stateToString(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || KindOf(err) != KindTransient
		},
	})

	return &breaker{cb: cb, name: name}
}

// execute runs fn through the breaker. Rejections come back as transient
// errors wrapping ErrCircuitOpen.
func (b *breaker) execute(op string, fn func() ([]byte, error)) ([]byte, error) {
	body, err := b.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		return body, nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
		logging.Warn().Str("endpoint", op).Msg("[CIRCUIT BREAKER] Request rejected")
		return nil, newError(KindTransient, op, ErrCircuitOpen)
	default:
		if KindOf(err) == KindTransient {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		}
		return nil, err
	}
}

func (b *breaker) state() string {
	return stateToString(b.cb.State())
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
