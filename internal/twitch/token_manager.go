package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"printcast/internal/config"
	"printcast/internal/services"
)

// ErrNotSeeded is returned when no token pair has been stored yet.
var ErrNotSeeded = errors.New("twitch tokens not seeded")

// expiryLeeway refreshes tokens slightly before their reported expiry so an
// in-flight publish never presents a token that lapses mid-request.
const expiryLeeway = 5 * time.Minute

// HTTPDoer describes the HTTP client used for Twitch API calls.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenManagerOption customises TokenManager construction.
type TokenManagerOption func(*TokenManager)

// WithTokenHTTPClient overrides the HTTP client used for token refresh calls.
func WithTokenHTTPClient(client HTTPDoer) TokenManagerOption {
	return func(m *TokenManager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithTokenURL overrides the OAuth token endpoint (used in tests).
func WithTokenURL(tokenURL string) TokenManagerOption {
	return func(m *TokenManager) {
		m.tokenURL = strings.TrimRight(tokenURL, "/")
	}
}

// WithTokenStore injects a custom persistence layer.
func WithTokenStore(store TokenStore) TokenManagerOption {
	return func(m *TokenManager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithPermanentFailureHook registers a callback invoked once when a refresh
// fails permanently and the manager latches into the fail-fast state.
func WithPermanentFailureHook(hook func(error)) TokenManagerOption {
	return func(m *TokenManager) {
		m.onPermanent = hook
	}
}

// TokenManager owns the OAuth token pair and keeps a usable bearer token
// available, refreshing through the token endpoint when the stored token is
// past its expiry estimate or an API call reported it rejected.
//
// Refresh is mutually exclusive: concurrent Token calls that both observe a
// stale token produce exactly one upstream refresh, and the second caller
// reuses its result. Duplicate refreshes would invalidate the first caller's
// new refresh token.
type TokenManager struct {
	cfg *config.Config

	httpClient  HTTPDoer
	tokenURL    string
	store       TokenStore
	onPermanent func(error)

	stateMu      sync.RWMutex
	state        tokenState
	forceRefresh bool
	permanentErr error
}

type tokenState struct {
	ClientIdentifier string    `json:"client_identifier"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	// ExpiresAt is an estimate derived from the last refresh response, not
	// an authoritative value from the platform.
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenManager builds a TokenManager using the provided configuration.
func NewTokenManager(cfg *config.Config, opts ...TokenManagerOption) (*TokenManager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	mgr := &TokenManager{
		cfg:        cfg,
		tokenURL:   cfg.Twitch.TokenURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		store:      NewFileTokenStore(cfg.TokenStatePath()),
	}
	for _, opt := range opts {
		opt(mgr)
	}

	if err := mgr.loadInitialState(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *TokenManager) loadInitialState() error {
	state, err := m.store.Load()
	if err != nil {
		return err
	}

	dirty := false
	if state.ClientIdentifier == "" {
		state.ClientIdentifier = strings.ReplaceAll(uuid.New().String(), "-", "")
		dirty = true
	}
	m.state = state

	if dirty {
		if err := m.store.Save(m.state); err != nil {
			return err
		}
	}
	return nil
}

// Seeded reports whether a refresh token is available.
func (m *TokenManager) Seeded() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return strings.TrimSpace(m.state.RefreshToken) != ""
}

// ClientIdentifier returns the stable per-install identifier.
func (m *TokenManager) ClientIdentifier() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.ClientIdentifier
}

// Token returns a usable bearer token, refreshing first when the stored token
// is known-stale or a previous API call was rejected as unauthorized.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if token, ok := m.cachedToken(); ok {
		return token, nil
	}
	return m.refreshToken(ctx)
}

// MarkUnauthorized forces the next Token call to refresh before returning.
// Publishers call it when a request failed with an authorization error.
func (m *TokenManager) MarkUnauthorized() {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	m.forceRefresh = true
}

func (m *TokenManager) cachedToken() (string, bool) {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if m.permanentErr != nil || m.forceRefresh {
		return "", false
	}
	if m.state.AccessToken != "" && time.Until(m.state.ExpiresAt) > expiryLeeway {
		return m.state.AccessToken, true
	}
	return "", false
}

func (m *TokenManager) refreshToken(ctx context.Context) (string, error) {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	// A permanent failure stays latched until the operator seeds new
	// credentials; ticks fail fast instead of hammering the token endpoint.
	if m.permanentErr != nil {
		return "", m.permanentErr
	}

	// Another caller may have completed the refresh while we waited.
	if !m.forceRefresh && m.state.AccessToken != "" && time.Until(m.state.ExpiresAt) > expiryLeeway {
		return m.state.AccessToken, nil
	}

	if strings.TrimSpace(m.state.RefreshToken) == "" {
		return "", services.Wrap(services.ErrAuthPermanent, "twitch", "refresh", "", ErrNotSeeded)
	}

	updated, err := m.exchange(ctx, m.state)
	if err != nil {
		if services.Permanent(err) {
			m.permanentErr = err
			if m.onPermanent != nil {
				m.onPermanent(err)
			}
		}
		return "", err
	}

	if err := m.store.Save(updated); err != nil {
		return "", services.Wrap(services.ErrTransient, "twitch", "refresh", "persist token state", err)
	}
	m.state = updated
	m.forceRefresh = false
	return updated.AccessToken, nil
}

// exchange swaps the refresh token for a new access/refresh pair.
func (m *TokenManager) exchange(ctx context.Context, state tokenState) (tokenState, error) {
	form := url.Values{
		"client_id":     {m.cfg.Twitch.ClientID},
		"client_secret": {m.cfg.Twitch.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {state.RefreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenState{}, services.Wrap(services.ErrConfiguration, "twitch", "refresh", "build request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return tokenState{}, services.Wrap(services.ErrTransient, "twitch", "refresh", "token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// The refresh token was rejected. Only re-authorization fixes this.
		return tokenState{}, services.Wrap(services.ErrAuthPermanent, "twitch", "refresh",
			fmt.Sprintf("token endpoint rejected refresh token with status %d", resp.StatusCode), nil)
	default:
		return tokenState{}, services.Wrap(services.ErrTransient, "twitch", "refresh",
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), nil)
	}

	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return tokenState{}, services.Wrap(services.ErrTransient, "twitch", "refresh", "decode token response", err)
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return tokenState{}, services.Wrap(services.ErrAuthPermanent, "twitch", "refresh", "token response missing tokens", nil)
	}

	updated := state
	updated.AccessToken = payload.AccessToken
	updated.RefreshToken = payload.RefreshToken
	updated.ExpiresAt = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	if payload.ExpiresIn <= 0 {
		// Twitch always reports expiry; keep a conservative default if not.
		updated.ExpiresAt = time.Now().Add(time.Hour)
	}
	return updated, nil
}

// Seed stores an operator-provided token pair and clears any latched
// permanent failure. Used by 'printcast auth seed' after re-authorization.
func (m *TokenManager) Seed(accessToken, refreshToken string) error {
	accessToken = strings.TrimSpace(accessToken)
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return errors.New("refresh token is empty")
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()

	updated := m.state
	updated.AccessToken = accessToken
	updated.RefreshToken = refreshToken
	// Force a refresh on first use so the expiry estimate comes from
	// the token endpoint rather than a guess.
	updated.ExpiresAt = time.Time{}

	if err := m.store.Save(updated); err != nil {
		return err
	}
	m.state = updated
	m.permanentErr = nil
	m.forceRefresh = false
	return nil
}
