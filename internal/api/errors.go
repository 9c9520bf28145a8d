// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/tomtom215/motortrack/internal/database"
	"github.com/tomtom215/motortrack/internal/provider"
	syncpkg "github.com/tomtom215/motortrack/internal/sync"
)

// Error codes carried in APIError.Code.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeProviderAuth  = "PROVIDER_AUTH_ERROR"
	ErrCodeUnavailable   = "PROVIDER_UNAVAILABLE"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeSyncRunning   = "SYNC_IN_PROGRESS"
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
	ErrCodeNotAvailable  = "SERVICE_UNAVAILABLE"
)

// ErrSyncSkipped is reported when a manual pass finds another one running.
var ErrSyncSkipped = errors.New("a sync pass is already running")

// errorStatus maps an error to its HTTP status and error code.
//
//	Validation 400, NotFound 404, RateLimit 429, Auth 502,
//	Transient 503, Configuration 500, busy 409, anything else 500.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrDeviceNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, syncpkg.ErrDeviceBusy), errors.Is(err, ErrSyncSkipped):
		return http.StatusConflict, ErrCodeSyncRunning
	}

	kind := provider.KindOf(err)
	switch kind {
	case provider.KindValidation:
		return kind.HTTPStatus(), ErrCodeValidation
	case provider.KindNotFound:
		return kind.HTTPStatus(), ErrCodeNotFound
	case provider.KindRateLimit:
		return kind.HTTPStatus(), ErrCodeRateLimited
	case provider.KindAuth:
		return kind.HTTPStatus(), ErrCodeProviderAuth
	case provider.KindTransient:
		return kind.HTTPStatus(), ErrCodeUnavailable
	case provider.KindConfiguration:
		return kind.HTTPStatus(), ErrCodeConfiguration
	}
	return http.StatusInternalServerError, ErrCodeInternal
}

// respondErr converts err to the error envelope, adding Retry-After for
// rate-limit errors that carry a delay.
func (h *Handler) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusTooManyRequests {
		if d := provider.RetryAfterOf(err); d > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(d.Seconds()))))
		}
	}
	message := err.Error()
	if status == http.StatusInternalServerError && code == ErrCodeInternal {
		message = "internal error"
	}
	h.respondError(w, r, status, code, message, nil, err)
}
