// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package sync

import (
	"math"
	"strings"
	"time"

	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
)

// Reason explains a status decision. Reasons are stable strings used as
// metric labels and in DeviceResult.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonProviderError      Reason = "provider_error"
	ReasonOfflineSignal      Reason = "offline_signal"
	ReasonInvalidCoordinates Reason = "invalid_coordinates"
	ReasonOutOfBounds        Reason = "out_of_bounds"
	ReasonStaleFix           Reason = "stale_fix"
	ReasonStagnant           Reason = "stagnant"
	ReasonNoIMEI             Reason = "no_imei"
	ReasonInvalidResponse    Reason = "invalid_response"
	ReasonRequestFailed      Reason = "request_failed"
)

// Observation is what the provider said about one device, reduced to the
// fields the status rules look at.
type Observation struct {
	Code       int
	Msg        string
	Address    string
	StatusText string
	Lat        *float64
	Lng        *float64
	FixTime    *time.Time
}

// ObservationFromResponse converts a location response. Wall-clock fix
// times are read in loc.
func ObservationFromResponse(resp *provider.LocationResponse, loc *time.Location) Observation {
	obs := Observation{
		Code:       int(resp.Code),
		Msg:        resp.Msg,
		Address:    strings.TrimSpace(resp.Address),
		StatusText: string(resp.Status),
	}
	if resp.HasCoordinates() {
		obs.Lat = resp.Lat.Ptr()
		obs.Lng = resp.Lng.Ptr()
	}
	if t, ok := resp.GPSTime.In(loc); ok {
		obs.FixTime = &t
	}
	return obs
}

// Policy holds the thresholds DetermineStatus applies.
type Policy struct {
	OfflineKeywords     []string
	Bounds              config.BoundsConfig
	FreshnessThreshold  time.Duration
	StagnationWindow    time.Duration
	StagnationSamples   int
	StagnationMatches   int
	CoordinateTolerance float64
}

// PolicyFromConfig builds a Policy. Keywords are lower-cased once here.
func PolicyFromConfig(cfg *config.SyncConfig) Policy {
	keywords := make([]string, 0, len(cfg.OfflineKeywords))
	for _, k := range cfg.OfflineKeywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keywords = append(keywords, k)
		}
	}
	return Policy{
		OfflineKeywords:     keywords,
		Bounds:              cfg.Bounds,
		FreshnessThreshold:  cfg.FreshnessThreshold,
		StagnationWindow:    cfg.StagnationWindow,
		StagnationSamples:   cfg.StagnationSamples,
		StagnationMatches:   cfg.StagnationMatches,
		CoordinateTolerance: cfg.CoordinateTolerance,
	}
}

// Decision is the outcome of DetermineStatus.
type Decision struct {
	Status models.GPSStatus
	Reason Reason
}

// UsableCoordinates reports whether the decision leaves a position worth
// storing. Stale and stagnant fixes are still real positions.
func (d Decision) UsableCoordinates() bool {
	switch d.Reason {
	case ReasonNone:
		return d.Status == models.GPSOnline
	case ReasonStaleFix, ReasonStagnant:
		return true
	}
	return false
}

// DetermineStatus classifies an observation. The first matching rule wins:
//
//	provider code != 0                      -> offline (provider_error)
//	offline keyword in msg, address, status -> offline (offline_signal)
//	missing coordinates, lat or lng 0       -> offline (invalid_coordinates)
//	outside the bounding box                -> offline (out_of_bounds)
//	fix missing or older than threshold     -> offline (stale_fix)
//	repeated position across samples        -> offline (stagnant)
//	otherwise                               -> online
//
// recent holds stored samples, newest first. DetermineStatus does not modify
// it and has no side effects.
func DetermineStatus(obs Observation, recent []models.LocationSample, now time.Time, p Policy) Decision {
	if obs.Code != 0 {
		return Decision{Status: models.GPSOffline, Reason: ReasonProviderError}
	}
	if p.HasOfflineKeyword(obs.Msg, obs.Address, obs.StatusText) {
		return Decision{Status: models.GPSOffline, Reason: ReasonOfflineSignal}
	}
	if !validCoordinates(obs.Lat, obs.Lng) {
		return Decision{Status: models.GPSOffline, Reason: ReasonInvalidCoordinates}
	}
	lat, lng := *obs.Lat, *obs.Lng
	if !p.Bounds.Contains(lat, lng) {
		return Decision{Status: models.GPSOffline, Reason: ReasonOutOfBounds}
	}
	if obs.FixTime == nil || now.Sub(*obs.FixTime) > p.FreshnessThreshold {
		return Decision{Status: models.GPSOffline, Reason: ReasonStaleFix}
	}
	if p.stagnant(lat, lng, recent, now) {
		return Decision{Status: models.GPSOffline, Reason: ReasonStagnant}
	}
	return Decision{Status: models.GPSOnline}
}

// HasOfflineKeyword reports whether any text contains a configured keyword,
// case-insensitively.
func (p Policy) HasOfflineKeyword(texts ...string) bool {
	for _, text := range texts {
		if text == "" {
			continue
		}
		lower := strings.ToLower(text)
		for _, k := range p.OfflineKeywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
	}
	return false
}

func (p Policy) stagnant(lat, lng float64, recent []models.LocationSample, now time.Time) bool {
	if p.StagnationSamples <= 0 || p.StagnationMatches <= 0 {
		return false
	}
	since := now.Add(-p.StagnationWindow)
	considered, matches := 0, 0
	for i := range recent {
		if considered == p.StagnationSamples {
			break
		}
		s := &recent[i]
		if s.RecordedAt.Before(since) {
			continue
		}
		considered++
		if math.Abs(s.Lat-lat) <= p.CoordinateTolerance && math.Abs(s.Lng-lng) <= p.CoordinateTolerance {
			matches++
		}
	}
	return matches >= p.StagnationMatches
}

// validCoordinates rejects missing axes, exact zeros and out-of-range values.
func validCoordinates(lat, lng *float64) bool {
	if lat == nil || lng == nil {
		return false
	}
	return validLatLng(*lat, *lng)
}

func validLatLng(lat, lng float64) bool {
	if lat == 0 || lng == 0 || math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
