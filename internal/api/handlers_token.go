// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package api

import (
	"net/http"

	"github.com/tomtom215/motortrack/internal/audit"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/models"
	"github.com/tomtom215/motortrack/internal/provider"
)

// tokenInfo is the masked view of a credential. The raw token never leaves
// the process.
func tokenInfo(cred provider.Credential, ok bool) models.TokenInfo {
	if !ok {
		return models.TokenInfo{Token: "", Valid: false}
	}
	acquired := cred.AcquiredAt.UTC()
	expires := cred.ExpiresAt().UTC()
	return models.TokenInfo{
		Token:      cred.Masked(),
		AcquiredAt: &acquired,
		ExpiresAt:  &expires,
		Valid:      true,
	}
}

// Token reports the cached credential without contacting the provider.
//
// @Summary Show the masked provider token
// @Tags Token
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.TokenInfo}
// @Router /token [get]
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	h.respondSuccess(w, http.StatusOK, tokenInfo(h.tokens.Cached()))
}

// RefreshToken discards the current credential and acquires a new one,
// subject to the auth rate limit.
//
// @Summary Force a provider token refresh
// @Tags Token
// @Produce json
// @Success 200 {object} models.APIResponse{data=models.TokenInfo}
// @Failure 429 {object} models.APIResponse "Auth budget spent; see Retry-After"
// @Failure 500 {object} models.APIResponse "Provider credentials not configured"
// @Router /token/refresh [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	cred, err := h.tokens.Refresh(r.Context())
	h.recordAudit(r, audit.EventTypeTokenRefresh, err, nil, "provider token refresh", nil)
	if err != nil {
		h.respondErr(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Str("token", cred.Masked()).Msg("Provider token refreshed on request")
	h.respondSuccessMessage(w, http.StatusOK, "token refreshed", tokenInfo(cred, true))
}

// ClearToken drops the cached and persisted credential.
//
// @Summary Clear the provider token
// @Tags Token
// @Produce json
// @Success 200 {object} models.APIResponse
// @Router /token [delete]
func (h *Handler) ClearToken(w http.ResponseWriter, r *http.Request) {
	h.tokens.Invalidate()
	h.recordAudit(r, audit.EventTypeTokenClear, nil, nil, "provider token cache cleared", nil)
	logging.Ctx(r.Context()).Info().Msg("Provider token cache cleared on request")
	h.respondSuccessMessage(w, http.StatusOK, "token cache cleared", tokenInfo(provider.Credential{}, false))
}

// TokenQueue reports callers waiting on credential acquisition.
func (h *Handler) TokenQueue(w http.ResponseWriter, r *http.Request) {
	h.respondSuccess(w, http.StatusOK, h.tokens.QueueStatus())
}
