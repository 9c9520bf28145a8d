// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Package cli implements motortrackctl, the operator command line for a
// running Motortrack server.
//
//	motortrackctl health
//	motortrackctl motors
//	motortrackctl sync            # full pass
//	motortrackctl sync 42         # one device
//	motortrackctl location 42 --lat -6.2 --lng 106.8
//	motortrackctl token refresh
//	motortrackctl audit --type token.clear
//
// Commands talk to the REST API through APIClient; HTTPClient is the real
// implementation and unwraps the server's response envelope.
package cli
