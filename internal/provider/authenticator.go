// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/metrics"
)

// Authenticator performs a single auth call. It never retries; pacing and
// retries belong to TokenManager and Client respectively.
type Authenticator interface {
	Authenticate(ctx context.Context, req AuthRequest) (*AuthResponse, error)
}

// HTTPAuthenticator calls POST {base}{endpoints.auth}.
type HTTPAuthenticator struct {
	url            string
	client         *http.Client
	rateLimitCodes codeSet
}

// NewHTTPAuthenticator builds an authenticator from provider settings.
func NewHTTPAuthenticator(cfg *config.ProviderConfig) *HTTPAuthenticator {
	return &HTTPAuthenticator{
		url:            joinURL(cfg.BaseURL, cfg.Endpoints.Auth),
		client:         &http.Client{Timeout: cfg.Timeout},
		rateLimitCodes: newCodeSet(cfg.RateLimitCodes),
	}
}

// Authenticate exchanges a signed request for an access token.
func (a *HTTPAuthenticator) Authenticate(ctx context.Context, in AuthRequest) (*AuthResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, newError(KindValidation, OpAuth, fmt.Errorf("failed to encode auth request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindConfiguration, OpAuth, fmt.Errorf("failed to create auth request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(OpAuth, "transient", time.Since(start))
		return nil, newError(KindTransient, OpAuth, fmt.Errorf("failed to make auth request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if e := classifyStatus(OpAuth, resp, time.Now()); e != nil {
		// A 401/403 on /auth means the signature was refused, not that a token expired.
		if e.Kind == KindAuth {
			e.Err = fmt.Errorf("provider refused credentials (HTTP %d)", resp.StatusCode)
		}
		metrics.RecordProviderRequest(OpAuth, e.Kind.String(), time.Since(start))
		return nil, e
	}

	var out AuthResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		metrics.RecordProviderRequest(OpAuth, KindValidation.String(), time.Since(start))
		return nil, newError(KindValidation, OpAuth, fmt.Errorf("failed to decode auth response: %w", err))
	}

	switch {
	case a.rateLimitCodes.has(int(out.Code)):
		e := newError(KindRateLimit, OpAuth, fmt.Errorf("%w: %s", ErrRateLimited, out.Msg))
		e.Code = int(out.Code)
		metrics.RecordProviderRequest(OpAuth, e.Kind.String(), time.Since(start))
		return nil, e
	case out.Code != 0:
		e := newError(KindAuth, OpAuth, fmt.Errorf("provider refused credentials: code %d: %s", out.Code, out.Msg))
		e.Code = int(out.Code)
		metrics.RecordProviderRequest(OpAuth, e.Kind.String(), time.Since(start))
		return nil, e
	case out.AccessToken == "":
		metrics.RecordProviderRequest(OpAuth, KindAuth.String(), time.Since(start))
		return nil, newError(KindAuth, OpAuth, errors.New("auth response carried no access token"))
	}

	metrics.RecordProviderRequest(OpAuth, "success", time.Since(start))
	return &out, nil
}

// classifyStatus maps a non-2xx HTTP status to an error. It returns nil for 2xx.
func classifyStatus(op string, resp *http.Response, now time.Time) *Error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	var e *Error
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		e = newError(KindAuth, op, ErrUnauthorized)
	case code == http.StatusTooManyRequests:
		e = newError(KindRateLimit, op, ErrRateLimited)
		e.RetryAfter = parseRetryAfter(resp.Header, now)
	case code == http.StatusNotFound:
		e = newError(KindNotFound, op, fmt.Errorf("not found: %s", readBodyForError(resp.Body)))
	case code >= 500:
		e = newError(KindTransient, op, fmt.Errorf("HTTP %d: %s", code, readBodyForError(resp.Body)))
	default:
		e = newError(KindValidation, op, fmt.Errorf("HTTP %d: %s", code, readBodyForError(resp.Body)))
	}
	e.StatusCode = code
	return e
}
