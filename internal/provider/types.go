// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ProviderTimeLayout is the wall-clock format the provider uses for string timestamps.
const ProviderTimeLayout = "2006-01-02 15:04:05"

var jsonNull = []byte("null")

func isNull(b []byte) bool {
	b = bytes.TrimSpace(b)
	return len(b) == 0 || bytes.Equal(b, jsonNull)
}

// Number is a lenient float. The provider sends coordinates and speeds as
// numbers, numeric strings, empty strings or null depending on firmware.
type Number struct {
	Value float64
	Valid bool
}

// Coordinate is a latitude or longitude.
type Coordinate = Number

// UnmarshalJSON accepts numbers and numeric strings. Anything else decodes as invalid.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	if isNull(b) {
		return nil
	}
	s := strings.TrimSpace(string(b))
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return nil
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*n = Number{Value: v, Valid: true}
	return nil
}

// MarshalJSON encodes an invalid Number as null.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// Ptr returns nil for an invalid Number.
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Text is a lenient string that also accepts numbers and booleans.
type Text string

// UnmarshalJSON stores strings as-is and any other scalar by its JSON text.
func (t *Text) UnmarshalJSON(b []byte) error {
	if isNull(b) {
		*t = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = Text(s)
		return nil
	}
	*t = Text(strings.TrimSpace(string(b)))
	return nil
}

// Code is the envelope status code. Some endpoints send it as a string.
type Code int

// UnmarshalJSON accepts numbers and numeric strings. Absent or empty means 0.
func (c *Code) UnmarshalJSON(b []byte) error {
	var n Number
	_ = n.UnmarshalJSON(b)
	*c = Code(int(n.Value))
	return nil
}

// ProviderTime is a GPS fix timestamp in one of the provider's encodings:
// unix seconds, unix milliseconds or ProviderTimeLayout in the provider zone.
// The zone is only known from config, so resolution happens in In.
type ProviderTime struct {
	unix float64
	text string
}

// UnmarshalJSON keeps the raw value for In to resolve.
func (p *ProviderTime) UnmarshalJSON(b []byte) error {
	*p = ProviderTime{}
	if isNull(b) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p.text = strings.TrimSpace(s)
		return nil
	}
	var n Number
	_ = n.UnmarshalJSON(b)
	if n.Valid {
		p.unix = n.Value
	}
	return nil
}

// MarshalJSON re-encodes the raw value.
func (p ProviderTime) MarshalJSON() ([]byte, error) {
	switch {
	case p.text != "":
		return json.Marshal(p.text)
	case p.unix > 0:
		return []byte(strconv.FormatFloat(p.unix, 'f', -1, 64)), nil
	default:
		return jsonNull, nil
	}
}

// IsZero reports whether no timestamp was sent.
func (p ProviderTime) IsZero() bool { return p.text == "" && p.unix <= 0 }

// In resolves the timestamp, interpreting wall-clock strings in loc.
func (p ProviderTime) In(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	if p.text != "" {
		if v, err := strconv.ParseFloat(p.text, 64); err == nil {
			return unixTime(v)
		}
		if t, err := time.ParseInLocation(ProviderTimeLayout, p.text, loc); err == nil {
			return t, true
		}
		if t, err := time.Parse(time.RFC3339, p.text); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	return unixTime(p.unix)
}

// Values above 1e12 are milliseconds; 1e12 seconds is the year 33658.
func unixTime(v float64) (time.Time, bool) {
	if v <= 0 {
		return time.Time{}, false
	}
	if v > 1e12 {
		return time.UnixMilli(int64(v)).UTC(), true
	}
	return time.Unix(int64(v), 0).UTC(), true
}

// envelopeHead is the part of every response the client classifies on.
type envelopeHead struct {
	Code Code   `json:"code"`
	Msg  string `json:"msg"`
}

// Envelope is the {code, msg, data|result} wrapper used by list-style endpoints.
type Envelope struct {
	Code   Code            `json:"code"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
	Result json.RawMessage `json:"result"`
}

// Payload returns data if present, otherwise result.
func (e *Envelope) Payload() json.RawMessage {
	if !isNull(e.Data) {
		return e.Data
	}
	if !isNull(e.Result) {
		return e.Result
	}
	return nil
}

// AuthRequest is the body of POST /auth.
type AuthRequest struct {
	AppID     string `json:"appid"`
	Time      int64  `json:"time"`
	Signature string `json:"signature"`
}

// AuthResponse is the body returned by POST /auth. ExpiresIn is in seconds.
type AuthResponse struct {
	Code        Code   `json:"code"`
	Msg         string `json:"msg"`
	AccessToken string `json:"accessToken"`
	ExpiresIn   Number `json:"expiresIn"`
}

// LocationResponse is the body of GET /device/location.
type LocationResponse struct {
	Code      Code            `json:"code"`
	Msg       string          `json:"msg"`
	Lat       Coordinate      `json:"lat"`
	Lng       Coordinate      `json:"lng"`
	GPSTime   ProviderTime    `json:"gpsTime"`
	Address   string          `json:"address"`
	Speed     Number          `json:"speed"`
	Direction Number          `json:"direction"`
	Status    Text            `json:"status"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// locationFields is LocationResponse without the nested data field; some
// gateways wrap the fix in data.
type locationFields struct {
	Lat       Coordinate   `json:"lat"`
	Lng       Coordinate   `json:"lng"`
	GPSTime   ProviderTime `json:"gpsTime"`
	Address   string       `json:"address"`
	Speed     Number       `json:"speed"`
	Direction Number       `json:"direction"`
	Status    Text         `json:"status"`
}

// HasCoordinates reports whether both axes decoded.
func (r *LocationResponse) HasCoordinates() bool {
	return r.Lat.Valid && r.Lng.Valid
}

// flatten lifts a fix nested under data to the top level.
func (r *LocationResponse) flatten() {
	if r.HasCoordinates() || isNull(r.Data) {
		return
	}
	var inner locationFields
	if err := json.Unmarshal(r.Data, &inner); err != nil {
		return
	}
	r.Lat, r.Lng = inner.Lat, inner.Lng
	if r.GPSTime.IsZero() {
		r.GPSTime = inner.GPSTime
	}
	if r.Address == "" {
		r.Address = inner.Address
	}
	if !r.Speed.Valid {
		r.Speed = inner.Speed
	}
	if !r.Direction.Valid {
		r.Direction = inner.Direction
	}
	if r.Status == "" {
		r.Status = inner.Status
	}
}

// DeviceInfo is one entry of GET /device/list.
type DeviceInfo struct {
	IMEI       string     `json:"imei"`
	DeviceName string     `json:"deviceName"`
	Status     Text       `json:"status"`
	Lat        Coordinate `json:"lat"`
	Lng        Coordinate `json:"lng"`
}

// Mileage is the payload of GET /device/mileage.
type Mileage struct {
	IMEI      string       `json:"imei"`
	Mileage   Number       `json:"mileage"`
	StartTime ProviderTime `json:"startTime"`
	EndTime   ProviderTime `json:"endTime"`
}

// VehicleStatus is the payload of GET /device/status.
type VehicleStatus struct {
	IMEI      string       `json:"imei"`
	Status    Text         `json:"status"`
	ACC       Text         `json:"accStatus"`
	Speed     Number       `json:"speed"`
	Battery   Number       `json:"battery"`
	GPSSignal Number       `json:"gpsSignal"`
	GPSTime   ProviderTime `json:"gpsTime"`
}
