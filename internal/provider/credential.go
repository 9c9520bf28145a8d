// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import "time"

// Credential is a provider access token with its effective lifetime.
type Credential struct {
	Value      string        `json:"value"`
	AcquiredAt time.Time     `json:"acquired_at"`
	TTL        time.Duration `json:"ttl"`
}

// ExpiresAt is the instant after which the credential is no longer used.
func (c Credential) ExpiresAt() time.Time {
	return c.AcquiredAt.Add(c.TTL)
}

// ValidAt reports whether the credential can be sent at now.
func (c Credential) ValidAt(now time.Time) bool {
	return c.Value != "" && now.Before(c.ExpiresAt())
}

// Masked returns the token with everything but the last four characters hidden.
func (c Credential) Masked() string {
	if len(c.Value) <= 8 {
		return "****"
	}
	return "****" + c.Value[len(c.Value)-4:]
}

// credentialTTL derives the effective TTL from the provider's expiresIn.
//
//   - expiresIn missing or non-positive: defaultTTL
//   - expiresIn at or below margin: expiresIn/2
//   - otherwise: expiresIn - margin
func credentialTTL(expiresIn Number, margin, defaultTTL time.Duration) time.Duration {
	if !expiresIn.Valid || expiresIn.Value <= 0 {
		return defaultTTL
	}
	ttl := time.Duration(expiresIn.Value * float64(time.Second))
	if ttl <= margin {
		return ttl / 2
	}
	return ttl - margin
}
