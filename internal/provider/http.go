// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// maxErrorBodySize caps how much of a failed response ends up in an error.
	maxErrorBodySize = 64 * 1024

	// maxResponseSize caps successful response bodies.
	maxResponseSize = 4 * 1024 * 1024
)

// readBodyForError reads a bounded prefix of an error response body.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

// parseRetryAfter reads a Retry-After header given as seconds or an HTTP date.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}

// joinURL appends an endpoint path to a base URL that may carry its own prefix.
func joinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

type codeSet map[int]struct{}

func newCodeSet(codes []int) codeSet {
	s := make(codeSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

func (s codeSet) has(code int) bool {
	_, ok := s[code]
	return ok
}

// tokenInvalidMessage recognizes envelope messages that mean the access token
// was rejected even though the code is not in the unauthorized list.
func tokenInvalidMessage(msg string) bool {
	m := strings.ToLower(msg)
	if !strings.Contains(m, "token") {
		return false
	}
	return strings.Contains(m, "invalid") || strings.Contains(m, "expired") || strings.Contains(m, "illegal")
}
