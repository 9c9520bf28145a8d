// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"crypto/md5" //nolint:gosec // the provider's auth scheme mandates MD5
	"encoding/hex"
	"strconv"
)

// Sign computes the auth signature for unixTime:
//
//	hex(md5(hex(md5(secretKey)) + decimal(unixTime)))
func Sign(secretKey string, unixTime int64) string {
	return md5Hex(md5Hex(secretKey) + strconv.FormatInt(unixTime, 10))
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}
