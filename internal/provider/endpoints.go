// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var errMissingIMEI = errors.New("imei is required")

// GetLocation fetches the latest fix for imei.
//
// A non-zero envelope code is not an error here: the sync engine turns it
// into an offline status with the message preserved.
func (c *Client) GetLocation(ctx context.Context, imei string) (*LocationResponse, error) {
	imei = strings.TrimSpace(imei)
	if imei == "" {
		return nil, newError(KindValidation, c.cfg.Endpoints.Location, errMissingIMEI)
	}
	resp, err := Request[LocationResponse](ctx, c, c.cfg.Endpoints.Location, url.Values{"imei": {imei}})
	if err != nil {
		return nil, err
	}
	resp.flatten()
	return resp, nil
}

// ListDevices returns every device registered with the provider account.
func (c *Client) ListDevices(ctx context.Context) ([]DeviceInfo, error) {
	payload, err := c.envelope(ctx, c.cfg.Endpoints.DeviceList, nil)
	if err != nil {
		return nil, err
	}
	devices := []DeviceInfo{}
	if payload == nil {
		return devices, nil
	}
	if err := json.Unmarshal(payload, &devices); err != nil {
		// Some accounts wrap the list as {"list": [...]}.
		var wrapped struct {
			List []DeviceInfo `json:"list"`
		}
		if err2 := json.Unmarshal(payload, &wrapped); err2 != nil {
			return nil, newError(KindValidation, c.cfg.Endpoints.DeviceList, fmt.Errorf("failed to decode device list: %w", err))
		}
		devices = wrapped.List
	}
	return devices, nil
}

// GetMileage returns the distance travelled by imei between from and to.
func (c *Client) GetMileage(ctx context.Context, imei string, from, to time.Time) (*Mileage, error) {
	imei = strings.TrimSpace(imei)
	endpoint := c.cfg.Endpoints.Mileage
	if imei == "" {
		return nil, newError(KindValidation, endpoint, errMissingIMEI)
	}
	if !to.After(from) {
		return nil, newError(KindValidation, endpoint, errors.New("end time must be after start time"))
	}

	params := url.Values{
		"imei":      {imei},
		"startTime": {from.In(c.loc).Format(ProviderTimeLayout)},
		"endTime":   {to.In(c.loc).Format(ProviderTimeLayout)},
	}
	payload, err := c.envelope(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	m := &Mileage{IMEI: imei}
	if payload == nil {
		return m, nil
	}
	if err := json.Unmarshal(payload, m); err != nil {
		// Bare number payload.
		var n Number
		_ = n.UnmarshalJSON(payload)
		if !n.Valid {
			return nil, newError(KindValidation, endpoint, fmt.Errorf("failed to decode mileage: %w", err))
		}
		m.Mileage = n
	}
	if m.IMEI == "" {
		m.IMEI = imei
	}
	return m, nil
}

// GetVehicleStatus returns the provider's live status for imei.
func (c *Client) GetVehicleStatus(ctx context.Context, imei string) (*VehicleStatus, error) {
	imei = strings.TrimSpace(imei)
	endpoint := c.cfg.Endpoints.VehicleStatus
	if imei == "" {
		return nil, newError(KindValidation, endpoint, errMissingIMEI)
	}
	payload, err := c.envelope(ctx, endpoint, url.Values{"imei": {imei}})
	if err != nil {
		return nil, err
	}
	vs := &VehicleStatus{IMEI: imei}
	if payload == nil {
		return vs, nil
	}
	if err := json.Unmarshal(payload, vs); err != nil {
		return nil, newError(KindValidation, endpoint, fmt.Errorf("failed to decode vehicle status: %w", err))
	}
	if vs.IMEI == "" {
		vs.IMEI = imei
	}
	return vs, nil
}

// envelope calls an envelope endpoint and returns its payload. A non-zero
// code is a provider rejection of the request.
func (c *Client) envelope(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	env, err := Request[Envelope](ctx, c, endpoint, params)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		e := newError(KindValidation, endpoint, fmt.Errorf("provider returned code %d: %s", env.Code, env.Msg))
		e.Code = int(env.Code)
		return nil, e
	}
	return env.Payload(), nil
}
