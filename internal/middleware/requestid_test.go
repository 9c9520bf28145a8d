// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomtom215/motortrack/internal/logging"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generated when absent", incoming: "", reuse: false},
		{name: "upstream id reused", incoming: "req-42.abc_DEF", reuse: true},
		{name: "malformed upstream id replaced", incoming: "bad id\nforged", reuse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxRequestID, ctxCorrelationID string
			handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				ctxRequestID = logging.RequestIDFromContext(r.Context())
				ctxCorrelationID = logging.CorrelationIDFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/motors", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			got := rec.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("response has no request id")
			}
			if tt.reuse && got != tt.incoming {
				t.Errorf("request id = %q, want %q", got, tt.incoming)
			}
			if !tt.reuse && got == tt.incoming {
				t.Errorf("request id %q should have been regenerated", got)
			}
			if ctxRequestID != got {
				t.Errorf("context request id = %q, header = %q", ctxRequestID, got)
			}
			if ctxCorrelationID == "" {
				t.Error("correlation id missing from context")
			}
		})
	}
}
