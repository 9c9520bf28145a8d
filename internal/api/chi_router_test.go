// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	_ "github.com/tomtom215/motortrack/docs"
)

type swaggerDoc struct {
	BasePath string `json:"basePath"`
	Info     struct {
		Title string `json:"title"`
	} `json:"info"`
	Paths map[string]map[string]json.RawMessage `json:"paths"`
}

func fetchSwaggerDoc(t *testing.T, server http.Handler) swaggerDoc {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /swagger/doc.json = %d", rec.Code)
	}
	var doc swaggerDoc
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode swagger doc: %v", err)
	}
	return doc
}

func TestSwaggerDocServed(t *testing.T) {
	f := newAPIFixture(t)
	doc := fetchSwaggerDoc(t, f.server)

	if doc.Info.Title != "Motortrack API" || doc.BasePath != "/api/v1" {
		t.Errorf("info = %q, basePath = %q", doc.Info.Title, doc.BasePath)
	}
	for _, path := range []string{"/motors", "/motors/sync", "/motors/{id}/sync", "/token/refresh", "/audit"} {
		if _, ok := doc.Paths[path]; !ok {
			t.Errorf("swagger doc is missing %s", path)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil)
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "swagger-ui") {
		t.Errorf("GET /swagger/index.html = %d", rec.Code)
	}
}

func TestSwaggerDocMatchesRoutes(t *testing.T) {
	f := newAPIFixture(t)
	doc := fetchSwaggerDoc(t, f.server)

	routes, ok := f.server.(chi.Routes)
	if !ok {
		t.Fatalf("router %T does not expose its routes", f.server)
	}
	routed := map[string]bool{}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routed[method+" "+strings.TrimSuffix(route, "/")] = true
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}

	for path, ops := range doc.Paths {
		for method := range ops {
			key := strings.ToUpper(method) + " " + doc.BasePath + path
			if !routed[key] {
				t.Errorf("documented operation %s is not routed", key)
			}
		}
	}
}
