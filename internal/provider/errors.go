// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies provider failures by how callers should react to them.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfiguration: credentials or settings are missing. Never retried.
	KindConfiguration
	// KindAuth: the provider rejected the credential.
	KindAuth
	// KindRateLimit: the provider (or our own auth budget) asked us to slow down.
	KindRateLimit
	// KindTransient: network failure, timeout, 5xx or an open breaker.
	KindTransient
	// KindValidation: malformed request input or an undecodable response.
	KindValidation
	// KindNotFound: the provider does not know the resource.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindTransient:
		return "transient"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// HTTPStatus is the status the API layer answers with for errors of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindAuth:
		return http.StatusBadGateway
	case KindRateLimit:
		return http.StatusTooManyRequests
	case KindTransient:
		return http.StatusServiceUnavailable
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Op names used in Error.Op for failures that did not come from a data endpoint.
const (
	OpAuth = "auth"
)

var (
	// ErrMissingCredentials is returned when app id or secret key is empty.
	ErrMissingCredentials = errors.New("provider app id or secret key not configured")

	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("provider circuit breaker open")

	// ErrUnauthorized marks a data call the provider answered as unauthorized.
	ErrUnauthorized = errors.New("provider rejected access token")

	// ErrRateLimited marks a provider rate-limit response.
	ErrRateLimited = errors.New("provider rate limit reached")
)

// Error is the error type returned by everything in this package.
type Error struct {
	Kind       Kind
	Op         string
	Err        error
	StatusCode int           // HTTP status, 0 if no response
	Code       int           // provider envelope code, 0 if absent
	RetryAfter time.Duration // set for KindRateLimit
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("provider %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("provider %s %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// RetryAfterOf returns the RetryAfter hint carried by err, if any.
func RetryAfterOf(err error) time.Duration {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.RetryAfter
	}
	return 0
}

// wrapContextErr converts a cancelled or expired context into a transient error.
func wrapContextErr(op string, err error) *Error {
	return newError(KindTransient, op, err)
}
