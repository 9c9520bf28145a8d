// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
)

// APIClient is the subset of the Motortrack REST API the CLI drives.
type APIClient interface {
	Health(ctx context.Context) (*models.HealthStatus, error)
	Motors(ctx context.Context) ([]models.DeviceWithAge, error)
	SyncAll(ctx context.Context) (*models.SyncRun, error)
	SyncOne(ctx context.Context, id int64) (*models.DeviceResult, error)
	UpdateLocation(ctx context.Context, id int64, lat, lng float64) (*models.DeviceWithAge, error)
	Token(ctx context.Context) (*models.TokenInfo, error)
	RefreshToken(ctx context.Context) (*models.TokenInfo, error)
	ClearToken(ctx context.Context) error
	TokenQueue(ctx context.Context) (*provider.QueueStatus, error)
	AuditEvents(ctx context.Context, eventType string, deviceID int64, limit int) ([]audit.Event, error)
}

// RemoteError is a failure envelope returned by the server.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type envelope struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
	Error   *models.APIError `json:"error"`
}

// HTTPClient talks to a running server.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// NewHTTPClient parses baseURL, for example http://localhost:8080.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", baseURL)
	}
	return &HTTPClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Health(ctx context.Context) (*models.HealthStatus, error) {
	var out models.HealthStatus
	// An unhealthy server answers 503 but still reports its status.
	err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &out)
	if err != nil && out.Status == "" {
		return nil, err
	}
	return &out, err
}

func (c *HTTPClient) Motors(ctx context.Context) ([]models.DeviceWithAge, error) {
	var out []models.DeviceWithAge
	if err := c.do(ctx, http.MethodGet, "/api/v1/motors", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SyncAll(ctx context.Context) (*models.SyncRun, error) {
	var out models.SyncRun
	if err := c.do(ctx, http.MethodPost, "/api/v1/motors/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) SyncOne(ctx context.Context, id int64) (*models.DeviceResult, error) {
	var out models.DeviceResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/motors/"+strconv.FormatInt(id, 10)+"/sync", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateLocation(ctx context.Context, id int64, lat, lng float64) (*models.DeviceWithAge, error) {
	body := map[string]float64{"lat": lat, "lng": lng}
	var out models.DeviceWithAge
	if err := c.do(ctx, http.MethodPut, "/api/v1/motors/"+strconv.FormatInt(id, 10)+"/location", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Token(ctx context.Context) (*models.TokenInfo, error) {
	var out models.TokenInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/token", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context) (*models.TokenInfo, error) {
	var out models.TokenInfo
	if err := c.do(ctx, http.MethodPost, "/api/v1/token/refresh", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ClearToken(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/token", nil, nil)
}

func (c *HTTPClient) TokenQueue(ctx context.Context) (*provider.QueueStatus, error) {
	var out provider.QueueStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/token/queue", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuditEvents lists operator actions. Zero arguments are omitted from the
// query.
func (c *HTTPClient) AuditEvents(ctx context.Context, eventType string, deviceID int64, limit int) ([]audit.Event, error) {
	q := url.Values{}
	if eventType != "" {
		q.Set("type", eventType)
	}
	if deviceID > 0 {
		q.Set("device_id", strconv.FormatInt(deviceID, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/v1/audit"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []audit.Event
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// do sends one request and unwraps the response envelope. Data is decoded
// into out even for a failure envelope when the server included it.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &RemoteError{Status: resp.StatusCode, Message: "malformed response: " + strings.TrimSpace(string(raw))}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		rerr := &RemoteError{Status: resp.StatusCode, Message: env.Message}
		if env.Error != nil {
			rerr.Code = env.Error.Code
			rerr.Message = env.Error.Message
			rerr.Details = env.Error.Details
		}
		return rerr
	}
	return nil
}
