// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// parseURLWithScheme parses rawURL and requires a host and one of schemes.
func parseURLWithScheme(rawURL string, schemes ...string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return nil, fmt.Errorf("scheme must be one of %s, got %q", strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	return u, nil
}

// validateHTTPURL accepts an http(s) base URL with an optional path prefix.
// Providers often mount their API under one, but query parameters would be
// lost when endpoint paths are joined on.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := parseURLWithScheme(rawURL, "http", "https")
	if err != nil {
		return fmt.Errorf("%s %w", fieldName, err)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, u.RawQuery)
	}
	return nil
}

func validateNATSURL(rawURL string) error {
	if _, err := parseURLWithScheme(rawURL, "nats", "tls", "ws", "wss"); err != nil {
		return fmt.Errorf("%w (e.g. nats://localhost:4222)", err)
	}
	return nil
}

// validatePostgresDSN accepts both forms lib/pq understands: a
// postgres:// URL or space-separated key=value pairs.
func validatePostgresDSN(dsn string) error {
	if strings.Contains(dsn, "://") {
		_, err := parseURLWithScheme(dsn, "postgres", "postgresql")
		return err
	}
	for _, field := range strings.Fields(dsn) {
		if !strings.Contains(field, "=") {
			return fmt.Errorf("expected key=value pairs or a postgres:// URL, got %q", field)
		}
	}
	if !strings.Contains(dsn, "host=") && !strings.Contains(dsn, "dbname=") {
		return fmt.Errorf("key=value DSN needs at least host or dbname")
	}
	return nil
}
