// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

// Package validation validates API request values with
// go-playground/validator v10.
//
// A single validator instance is shared by every handler; it caches struct
// metadata after first use. Field names in messages are taken from json tags:
//
//	var req validation.ManualLocationRequest
//	if err := json.NewDecoder(r.Body).Decode(&req); err != nil { ... }
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// Request types live in requests.go. Coordinates are range checked here;
// whether a position is plausible for the fleet (zero, outside the
// configured bounding box) is decided by the sync engine, which records such
// updates as offline instead of rejecting them.
package validation
