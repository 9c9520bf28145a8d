// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

/*
Package provider is the client for the third-party GPS tracking API.

Authentication:

The provider issues short-lived access tokens from POST /auth in exchange for
a signed request (see Sign). It allows two auth calls per rolling minute, so
TokenManager serializes acquisition behind a single-flight, spaces attempts
31s apart, and enforces the rolling ceiling on top:

	tokens := provider.NewTokenManager(cfg.Token, &cfg.Provider,
		provider.NewHTTPAuthenticator(&cfg.Provider), c.Namespace("token"), clock)
	cred, err := tokens.GetCredential(ctx)

Data endpoints:

Client sends the credential in the accessToken header and classifies every
response:

	HTTP 401/403, unauthorized code  -> invalidate token, retry at once
	HTTP 429, rate-limit code        -> wait max(Retry-After, cooldown)
	HTTP 404                         -> KindNotFound, no retry
	undecodable body                 -> KindValidation, no retry
	network error, timeout, 5xx      -> exponential backoff

Typed wrappers (GetLocation, ListDevices, GetMileage, GetVehicleStatus) sit on
the generic Request function. An optional circuit breaker fails fast while
the provider is down.

Errors:

Every error is a *Error carrying a Kind. Use KindOf or IsKind to branch on it
and Kind.HTTPStatus to map it onto an API response.
*/
package provider
