// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/jonboulle/clockwork"

	"github.com/tomtom215/motortrack/internal/cache"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
)

// recentWindow is the horizon for the success/failure counters behind APIAccessible.
const recentWindow = 5 * time.Minute

// CredentialSource supplies access tokens. *TokenManager implements it.
type CredentialSource interface {
	GetCredential(ctx context.Context) (Credential, error)
	Invalidate()
}

// Stats is a snapshot of client health.
type Stats struct {
	TotalSuccess   int64      `json:"total_success"`
	TotalFailure   int64      `json:"total_failure"`
	RecentSuccess  int64      `json:"recent_success"`
	RecentFailure  int64      `json:"recent_failure"`
	APIAccessible  bool       `json:"api_accessible"`
	CircuitBreaker string     `json:"circuit_breaker"`
	LastSuccess    *time.Time `json:"last_success,omitempty"`
}

// Client calls the GPS provider's data endpoints.
type Client struct {
	cfg     config.ProviderConfig
	http    *http.Client
	tokens  CredentialSource
	clock   clockwork.Clock
	breaker *breaker
	loc     *time.Location

	unauthorizedCodes codeSet
	rateLimitCodes    codeSet

	totalSuccess  atomic.Int64
	totalFailure  atomic.Int64
	recentSuccess *cache.SlidingWindowCounter
	recentFailure *cache.SlidingWindowCounter
	lastSuccess   atomic.Int64 // unix nanos
}

// NewClient creates a provider client.
func NewClient(cfg *config.ProviderConfig, tokens CredentialSource, clock clockwork.Clock) (*Client, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, newError(KindConfiguration, "", fmt.Errorf("invalid provider timezone %q: %w", cfg.Timezone, err))
	}

	c := &Client{
		cfg:               *cfg,
		http:              &http.Client{},
		tokens:            tokens,
		clock:             clock,
		loc:               loc,
		unauthorizedCodes: newCodeSet(cfg.UnauthorizedCodes),
		rateLimitCodes:    newCodeSet(cfg.RateLimitCodes),
		recentSuccess:     cache.NewSlidingWindowCounterWithClock(recentWindow, 10, clock),
		recentFailure:     cache.NewSlidingWindowCounterWithClock(recentWindow, 10, clock),
	}
	if cfg.BreakerEnabled {
		c.breaker = newBreaker(breakerName)
	}
	return c, nil
}

// Location is the zone wall-clock provider timestamps are interpreted in.
func (c *Client) Location() *time.Location { return c.loc }

// Request calls endpoint with params and decodes the body into T.
//
// Each attempt fetches a credential and is bounded by the provider timeout.
// Unauthorized responses invalidate the credential and retry immediately,
// rate limits wait max(Retry-After, cooldown), transient failures back off
// exponentially. Not-found and malformed responses are returned at once.
func Request[T any](ctx context.Context, c *Client, endpoint string, params url.Values) (*T, error) {
	attempts := 1 + c.cfg.MaxRetries
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.attempt(ctx, endpoint, params)
		if err == nil {
			var out T
			if err := json.Unmarshal(body, &out); err != nil {
				c.recordFailure()
				return nil, newError(KindValidation, endpoint, fmt.Errorf("failed to decode response: %w", err))
			}
			c.recordSuccess()
			return &out, nil
		}
		lastErr = err

		delay, retry := c.retryDelay(endpoint, err, attempt)
		if !retry || attempt == attempts {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, wrapContextErr(endpoint, err)
		}
	}

	if KindOf(lastErr) != KindNotFound {
		c.recordFailure()
	}
	return nil, lastErr
}

// retryDelay decides whether err is worth another attempt and how long to wait.
func (c *Client) retryDelay(endpoint string, err error, attempt int) (time.Duration, bool) {
	var pe *Error
	if !errors.As(err, &pe) {
		return 0, false
	}

	switch pe.Kind {
	case KindAuth:
		// A refused signature will not get better by asking again.
		if pe.Op == OpAuth {
			return 0, false
		}
		c.tokens.Invalidate()
		metrics.RecordProviderRetry(endpointLabel(endpoint), "unauthorized")
		logging.Debug().Str("endpoint", endpoint).Int("attempt", attempt).Msg("Provider rejected token, retrying with a fresh one")
		return 0, true

	case KindRateLimit:
		// The token queue already waited its full timeout.
		if pe.Op == OpAuth {
			return 0, false
		}
		delay := max(pe.RetryAfter, c.cfg.RateLimitCooldown)
		metrics.RecordProviderRetry(endpointLabel(endpoint), "rate_limited")
		logging.Warn().Str("endpoint", endpoint).Dur("delay", delay).Msg("Provider rate limit hit, backing off")
		return delay, true

	case KindTransient:
		if errors.Is(err, ErrCircuitOpen) {
			return 0, false
		}
		delay := c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
		metrics.RecordProviderRetry(endpointLabel(endpoint), "transient")
		logging.Debug().Err(err).Str("endpoint", endpoint).Int("attempt", attempt).Dur("delay", delay).Msg("Provider request failed, retrying")
		return delay, true

	default:
		return 0, false
	}
}

// attempt performs one credentialed call, through the breaker when enabled.
func (c *Client) attempt(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	cred, err := c.tokens.GetCredential(ctx)
	if err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			return nil, wrapContextErr(OpAuth, err)
		}
		return nil, err
	}

	call := func() ([]byte, error) {
		return c.do(ctx, endpoint, params, cred.Value)
	}
	if c.breaker != nil {
		return c.breaker.execute(endpoint, call)
	}
	return call()
}

// do sends a single GET and classifies the outcome.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values, token string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqURL := joinURL(c.cfg.BaseURL, endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, newError(KindValidation, endpoint, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("accessToken", token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	body, err := c.send(req, endpoint)
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	metrics.RecordProviderRequest(endpointLabel(endpoint), outcome, time.Since(start))
	return body, err
}

func (c *Client) send(req *http.Request, endpoint string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newError(KindTransient, endpoint, fmt.Errorf("failed to make %s request: %w", endpoint, err))
	}
	defer func() { _ = resp.Body.Close() }()

	if e := classifyStatus(endpoint, resp, c.clock.Now()); e != nil {
		return nil, e
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, newError(KindTransient, endpoint, fmt.Errorf("failed to read response body: %w", err))
	}

	var head envelopeHead
	if err := json.Unmarshal(body, &head); err != nil {
		return nil, newError(KindValidation, endpoint, fmt.Errorf("failed to decode response: %w", err))
	}

	code := int(head.Code)
	switch {
	case c.unauthorizedCodes.has(code) || (code != 0 && tokenInvalidMessage(head.Msg)):
		e := newError(KindAuth, endpoint, fmt.Errorf("%w: code %d: %s", ErrUnauthorized, code, head.Msg))
		e.Code = code
		return nil, e
	case c.rateLimitCodes.has(code):
		e := newError(KindRateLimit, endpoint, fmt.Errorf("%w: code %d: %s", ErrRateLimited, code, head.Msg))
		e.Code = code
		return nil, e
	}
	return body, nil
}

// sleep waits d on the injected clock, returning early if ctx is done.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := c.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}

func (c *Client) recordSuccess() {
	c.totalSuccess.Add(1)
	c.recentSuccess.IncrementOne()
	c.lastSuccess.Store(c.clock.Now().UnixNano())
}

func (c *Client) recordFailure() {
	c.totalFailure.Add(1)
	c.recentFailure.IncrementOne()
}

// APIAccessible is true unless the last five minutes saw only failures.
func (c *Client) APIAccessible() bool {
	return c.recentFailure.Count() == 0 || c.recentSuccess.Count() > 0
}

// BreakerState returns closed, half-open, open, or disabled.
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.state()
}

// Stats returns a snapshot of request counters.
func (c *Client) Stats() Stats {
	s := Stats{
		TotalSuccess:   c.totalSuccess.Load(),
		TotalFailure:   c.totalFailure.Load(),
		RecentSuccess:  c.recentSuccess.Count(),
		RecentFailure:  c.recentFailure.Count(),
		APIAccessible:  c.APIAccessible(),
		CircuitBreaker: c.BreakerState(),
	}
	if ns := c.lastSuccess.Load(); ns > 0 {
		t := time.Unix(0, ns).UTC()
		s.LastSuccess = &t
	}
	return s
}

// endpointLabel trims the leading slash for log fields.
func endpointLabel(endpoint string) string {
	return strings.TrimPrefix(endpoint, "/")
}
