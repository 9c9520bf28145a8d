// Motortrack - Fleet GPS Provider Integration and Location Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/motortrack

package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/motortrack/internal/cache"
	"github.com/tomtom215/motortrack/internal/config"
	"github.com/tomtom215/motortrack/internal/logging"
	"github.com/tomtom215/motortrack/internal/metrics"
)

const credentialKey = "current"

// QueueStatus describes callers waiting on credential acquisition.
type QueueStatus struct {
	Length       int  `json:"length"`
	IsProcessing bool `json:"is_processing"`
}

// TokenManager owns the provider access token.
//
// The provider allows AuthMaxCalls auth calls per rolling AuthWindow. All
// acquisition goes through one singleflight key, so at most one auth call is
// in progress and every concurrent caller shares its result. When the budget
// is spent, the flight waits on the clock (a deferred flight) rather than
// failing, and callers that queue longer than QueueTimeout give up with a
// rate-limit error.
type TokenManager struct {
	cfg         config.TokenConfig
	appID       string
	secretKey   string
	authTimeout time.Duration

	auth  Authenticator
	store *cache.Namespace
	clock clockwork.Clock

	group singleflight.Group

	mu          sync.Mutex
	attempts    []time.Time // auth attempts inside the rolling window
	lastAttempt time.Time   // zeroed by Invalidate
	persist     CredentialStore
	onUpdate    func(Credential)

	kick       chan struct{}
	waiters    atomic.Int64
	processing atomic.Bool
}

// NewTokenManager creates a token manager. store is the cache namespace the
// credential lives in; the manager is its only writer.
func NewTokenManager(tokenCfg config.TokenConfig, providerCfg *config.ProviderConfig, auth Authenticator, store *cache.Namespace, clock clockwork.Clock) *TokenManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TokenManager{
		cfg:         tokenCfg,
		appID:       providerCfg.AppID,
		secretKey:   providerCfg.SecretKey,
		authTimeout: providerCfg.Timeout,
		auth:        auth,
		store:       store,
		clock:       clock,
		kick:        make(chan struct{}, 1),
	}
}

// SetCredentialStore enables persistence and restores a still-valid credential.
func (m *TokenManager) SetCredentialStore(s CredentialStore) {
	m.mu.Lock()
	m.persist = s
	m.mu.Unlock()

	cred, ok, err := s.Load()
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to load persisted provider credential")
		return
	}
	if !ok || !cred.ValidAt(m.clock.Now()) {
		return
	}
	m.storeCredential(cred)
	logging.Info().Time("expires_at", cred.ExpiresAt()).Msg("Restored persisted provider credential")
}

// OnUpdate registers a hook called after every successful acquisition.
func (m *TokenManager) OnUpdate(fn func(Credential)) {
	m.mu.Lock()
	m.onUpdate = fn
	m.mu.Unlock()
}

// Cached returns the current credential without any I/O.
func (m *TokenManager) Cached() (Credential, bool) {
	v, ok := m.store.Get(credentialKey)
	if !ok {
		return Credential{}, false
	}
	cred, ok := v.(Credential)
	if !ok || !cred.ValidAt(m.clock.Now()) {
		return Credential{}, false
	}
	return cred, true
}

// GetCredential returns a valid credential, acquiring one if needed.
func (m *TokenManager) GetCredential(ctx context.Context) (Credential, error) {
	if cred, ok := m.Cached(); ok {
		return cred, nil
	}
	if m.appID == "" || m.secretKey == "" {
		return Credential{}, newError(KindConfiguration, OpAuth, ErrMissingCredentials)
	}

	metrics.TokenQueueLength.Set(float64(m.waiters.Add(1)))
	defer func() { metrics.TokenQueueLength.Set(float64(m.waiters.Add(-1))) }()

	queueCtx, cancel := context.WithTimeout(ctx, m.cfg.QueueTimeout)
	defer cancel()

	ch := m.group.DoChan(credentialKey, func() (any, error) {
		return m.acquire()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Credential{}, res.Err
		}
		return res.Val.(Credential), nil
	case <-queueCtx.Done():
		if ctx.Err() != nil {
			return Credential{}, wrapContextErr(OpAuth, ctx.Err())
		}
		metrics.TokenQueueTimeouts.Inc()
		retry := m.cooldown(m.clock.Now())
		if retry <= 0 {
			retry = m.cfg.MinInterval()
		}
		e := newError(KindRateLimit, OpAuth, fmt.Errorf("timed out after %s waiting for credential", m.cfg.QueueTimeout))
		e.RetryAfter = retry
		return Credential{}, e
	}
}

// Invalidate drops the cached and persisted credential and clears the
// minimum-spacing clock. The rolling-window history is kept.
func (m *TokenManager) Invalidate() {
	m.store.Delete(credentialKey)

	m.mu.Lock()
	m.lastAttempt = time.Time{}
	persist := m.persist
	m.mu.Unlock()

	if persist != nil {
		if err := persist.Delete(); err != nil {
			logging.Warn().Err(err).Msg("Failed to delete persisted provider credential")
		}
	}
	metrics.SetTokenExpiry(time.Time{})

	// Wake a deferred flight so it re-evaluates its cooldown.
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

// Refresh forces a new credential.
func (m *TokenManager) Refresh(ctx context.Context) (Credential, error) {
	m.Invalidate()
	return m.GetCredential(ctx)
}

// QueueStatus reports callers currently waiting for a credential.
func (m *TokenManager) QueueStatus() QueueStatus {
	return QueueStatus{
		Length:       int(m.waiters.Load()),
		IsProcessing: m.processing.Load(),
	}
}

// acquire runs inside the singleflight. It waits out any cooldown, then makes
// exactly one auth call.
func (m *TokenManager) acquire() (Credential, error) {
	m.processing.Store(true)
	defer m.processing.Store(false)

	for {
		if cred, ok := m.Cached(); ok {
			return cred, nil
		}
		wait := m.cooldown(m.clock.Now())
		if wait <= 0 {
			break
		}
		logging.Debug().Dur("wait", wait).Msg("Provider auth budget exhausted, deferring credential acquisition")
		timer := m.clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case <-m.kick:
			timer.Stop()
		}
	}

	now := m.recordAttempt()

	ctx, cancel := context.WithTimeout(context.Background(), m.authTimeout)
	defer cancel()

	ts := now.Unix()
	resp, err := m.auth.Authenticate(ctx, AuthRequest{
		AppID:     m.appID,
		Time:      ts,
		Signature: Sign(m.secretKey, ts),
	})
	metrics.RecordTokenAttempt(err)
	if err != nil {
		var pe *Error
		if !errors.As(err, &pe) {
			err = newError(KindTransient, OpAuth, err)
		}
		logging.Warn().Err(err).Msg("Provider credential acquisition failed")
		return Credential{}, err
	}

	cred := Credential{
		Value:      resp.AccessToken,
		AcquiredAt: now,
		TTL:        credentialTTL(resp.ExpiresIn, m.cfg.ExpiryMargin, m.cfg.DefaultTTL),
	}
	m.storeCredential(cred)

	m.mu.Lock()
	persist, hook := m.persist, m.onUpdate
	m.mu.Unlock()

	if persist != nil {
		if err := persist.Save(cred); err != nil {
			logging.Warn().Err(err).Msg("Failed to persist provider credential")
		}
	}
	logging.Info().Time("expires_at", cred.ExpiresAt()).Msg("Acquired provider credential")
	if hook != nil {
		hook(cred)
	}
	return cred, nil
}

func (m *TokenManager) storeCredential(cred Credential) {
	m.store.SetWithTTL(credentialKey, cred, cred.TTL)
	metrics.SetTokenExpiry(cred.ExpiresAt())
}

// recordAttempt stamps an auth attempt before the call is made, so a call that
// fails still consumes budget.
func (m *TokenManager) recordAttempt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.attempts = append(m.pruneLocked(now), now)
	m.lastAttempt = now
	return now
}

// cooldown returns how long until the next auth call is allowed.
func (m *TokenManager) cooldown(now time.Time) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	var wait time.Duration
	if !m.lastAttempt.IsZero() {
		if d := m.lastAttempt.Add(m.cfg.MinInterval()).Sub(now); d > wait {
			wait = d
		}
	}

	recent := m.pruneLocked(now)
	m.attempts = recent
	if limit := m.cfg.AuthMaxCalls; limit > 0 && len(recent) >= limit {
		oldest := recent[len(recent)-limit]
		if d := oldest.Add(m.cfg.AuthWindow + m.cfg.AuthIntervalMargin).Sub(now); d > wait {
			wait = d
		}
	}
	return wait
}

// pruneLocked drops attempts that no longer count against the window.
func (m *TokenManager) pruneLocked(now time.Time) []time.Time {
	horizon := now.Add(-(m.cfg.AuthWindow + m.cfg.AuthIntervalMargin))
	i := 0
	for i < len(m.attempts) && !m.attempts[i].After(horizon) {
		i++
	}
	return m.attempts[i:]
}
