// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/models"
)

// ChiMiddlewareConfig holds configuration for Chi middleware factories.
type ChiMiddlewareConfig struct {
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
	CORSMaxAge         int // seconds

	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// DefaultChiMiddlewareConfig returns the defaults. No CORS origin is allowed
// until one is configured.
func DefaultChiMiddlewareConfig() *ChiMiddlewareConfig {
	return &ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		CORSAllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		CORSMaxAge:         86400,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}
}

// ChiMiddleware builds the router's CORS and rate limiting middleware.
type ChiMiddleware struct {
	config *ChiMiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. A nil config uses the
// defaults.
func NewChiMiddleware(cfg *ChiMiddlewareConfig) *ChiMiddleware {
	if cfg == nil {
		cfg = DefaultChiMiddlewareConfig()
	}
	return &ChiMiddleware{
		config: cfg,
		cors: cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: cfg.CORSAllowedMethods,
			AllowedHeaders: cfg.CORSAllowedHeaders,
			ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:         cfg.CORSMaxAge,
		}),
	}
}

// NewChiMiddlewareFromConfig creates the factory from the security section.
func NewChiMiddlewareFromConfig(sec *config.SecurityConfig) *ChiMiddleware {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = sec.CORSOrigins
	if sec.RateLimitReqs > 0 {
		cfg.RateLimitRequests = sec.RateLimitReqs
	}
	if sec.RateLimitWindow > 0 {
		cfg.RateLimitWindow = sec.RateLimitWindow
	}
	cfg.RateLimitDisabled = sec.RateLimitDisabled
	return NewChiMiddleware(cfg)
}

// CORS returns the go-chi/cors handler.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitConfig defines a per-route-group limit.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

var (
	// RateLimitSync covers endpoints that reach the provider for every
	// device. Each pass may cost one provider call per device.
	RateLimitSync = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitToken covers token refresh; the provider allows two auth
	// calls a minute, so anything more only queues.
	RateLimitToken = RateLimitConfig{Requests: 5, Window: time.Minute}

	// RateLimitHealth is permissive for monitoring probes.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimit returns the default per-IP limiter.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitConfig{
		Requests: m.config.RateLimitRequests,
		Window:   m.config.RateLimitWindow,
	})
}

// RateLimitCustom returns a per-IP limiter that answers in the API envelope.
func (m *ChiMiddleware) RateLimitCustom(rl RateLimitConfig) func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(rl.Requests, rl.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.Window.Seconds())))
			respondJSON(w, http.StatusTooManyRequests, &models.APIResponse{
				Success:  false,
				Message:  "too many requests",
				Metadata: models.Metadata{Timestamp: time.Now().UTC()},
				Error:    &models.APIError{Code: ErrCodeRateLimited, Message: "too many requests"},
			})
		}),
	)
}

// RateLimitSync returns the limiter for sync triggers.
func (m *ChiMiddleware) RateLimitSync() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitSync)
}

// RateLimitToken returns the limiter for token refresh.
func (m *ChiMiddleware) RateLimitToken() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitToken)
}

// RateLimitHealth returns the limiter for health probes.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// APISecurityHeaders sets the response headers every JSON endpoint carries.
// HSTS is added only for requests that arrived over TLS.
func APISecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
			if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
				w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteDeadline moves the connection's write deadline to d from the start of
// the request, overriding http.Server.WriteTimeout for the routes it wraps.
// Writers that cannot set deadlines are passed through unchanged.
func WriteDeadline(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := http.NewResponseController(w)
			if err := rc.SetWriteDeadline(time.Now().Add(d)); err != nil && !errors.Is(err, http.ErrNotSupported) {
				logging.Ctx(r.Context()).Debug().Err(err).Msg("Failed to extend write deadline")
			}
			next.ServeHTTP(w, r)
		})
	}
}
