// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/tomtom215/motortrack/internal/middleware"
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware factory uses the defaults.
func NewRouter(handler *Handler, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw}
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("list"),
		httpSwagger.DomID("swagger-ui"),
	))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// The websocket route sits outside the timeout and JSON header
	// middleware; the connection outlives the request.
	r.Get("/api/v1/ws", h.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		// Manual syncs hold the connection for a whole pass, so they get
		// their own deadline instead of the server-wide write timeout.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitSync())
			r.Use(WriteDeadline(router.syncTimeout() + writeGrace))
			r.Use(chimiddleware.Timeout(router.syncTimeout()))
			r.Post("/motors/sync", h.SyncMotors)
			r.Post("/motors/{id}/sync", h.SyncMotor)
		})

		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(router.requestTimeout()))

			r.Route("/motors", func(r chi.Router) {
				r.Get("/", h.Motors)
				r.Put("/{id}/location", h.UpdateLocation)
				r.Get("/{id}/mileage", h.Mileage)
				r.Get("/{id}/vehicle-status", h.VehicleStatus)
			})

			r.Route("/token", func(r chi.Router) {
				r.Get("/", h.Token)
				r.Delete("/", h.ClearToken)
				r.Get("/queue", h.TokenQueue)
				r.With(router.chiMiddleware.RateLimitToken()).Post("/refresh", h.RefreshToken)
			})

			r.Get("/provider/devices", h.ProviderDevices)
			r.Get("/audit", h.AuditEvents)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		h.respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		h.respondError(w, req, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil, nil)
	})

	return r
}

// writeGrace is added to a route's timeout so the error response still fits
// inside the write deadline.
const writeGrace = 10 * time.Second

// requestTimeout bounds ordinary API requests.
func (router *Router) requestTimeout() time.Duration {
	cfg := router.handler.config
	if cfg.Server.Timeout > 0 {
		return cfg.Server.Timeout
	}
	return 5 * time.Minute
}

// syncTimeout bounds manual sync requests. The pass itself runs to
// completion past it; only the response is abandoned.
func (router *Router) syncTimeout() time.Duration {
	cfg := router.handler.config
	if cfg.Server.SyncTimeout > 0 {
		return cfg.Server.SyncTimeout
	}
	return 10 * time.Minute
}
