// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// General API information for swag. The rendered document lives in ./docs
// and is served at /swagger/index.html.
//
// @title Motortrack API
// @version 1.0
// @description Fleet GPS provider integration: device positions, manual syncs, token management and the operator audit trail.
//
// @contact.name GitHub Repository
// @contact.url https://github.com/tomtom215/motortrack/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @BasePath /api/v1
// @schemes http https
//
// @tag.name Motors
// @tag.description Fleet devices, manual syncs and location overrides
// @tag.name Token
// @tag.description Provider access token lifecycle
// @tag.name Provider
// @tag.description Pass-through queries to the GPS provider
// @tag.name Health
// @tag.description Service health
// @tag.name Audit
// @tag.description Operator audit trail

package main
