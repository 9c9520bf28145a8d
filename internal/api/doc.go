// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package api serves the Motortrack HTTP API with the chi router.

Routes (all under /api/v1):

	GET    /motors                      devices with location status
	POST   /motors/sync                 run a sync pass now (409 if one is running)
	POST   /motors/{id}/sync            sync one device
	PUT    /motors/{id}/location        set a position by hand {lat, lng}
	GET    /motors/{id}/mileage         provider mileage, ?from=&to= (RFC3339)
	GET    /motors/{id}/vehicle-status  provider vehicle status
	GET    /provider/devices            devices on the provider account
	GET    /token                       masked provider credential
	POST   /token/refresh               force a new credential
	DELETE /token                       drop the cached credential
	GET    /token/queue                 callers waiting for a credential
	GET    /audit                       operator actions, ?type=&device_id=&since=&limit=
	GET    /health, /health/live, /health/ready
	GET    /ws                          live event stream (websocket)

GET /metrics serves Prometheus metrics and GET /swagger/* the API docs.

The two sync routes run under server.sync_timeout and extend the connection
write deadline (WriteDeadline); other routes use server.timeout.

Every JSON response uses models.APIResponse. Errors map to statuses by kind
(see errorStatus); rate-limit errors carry Retry-After.

Manual syncs, manual location updates and token refresh/clear are recorded
through SetAuditLogger when auditing is enabled.

Middleware order: request id and logging context, real IP, panic recovery,
CORS, then per-group rate limits (go-chi/httprate), security headers and
request metrics.
*/
package api
