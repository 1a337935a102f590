// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package auth implements the client handle for one hosted auth project.
//
// A Client is bound to a single endpoint (project URL plus publishable key).
// It signs users in and out through the backend API, caches the current
// session, persists it in a SessionStore (the OS keychain in the CLI) and
// publishes auth-state events to subscribers. Token issuance, refresh
// validation and password checks all stay on the service side.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"

	"lovmig/cli/internal/backend"
	liberrors "lovmig/cli/internal/errors"
)

// ExpiryMargin is how close to expiry a session is refreshed before use.
const ExpiryMargin = 90 * time.Second

// SignUpOptions carries optional signup parameters.
type SignUpOptions struct {
	// RedirectTo is where the confirmation email sends the user.
	RedirectTo string
	// Data becomes the new user's metadata.
	Data map[string]any
}

// SignUpResult is the outcome of a signup. Session is nil when the project
// requires email confirmation first.
type SignUpResult struct {
	User    *User
	Session *Session
}

// Option customizes a Client.
type Option func(*Client)

// WithAPI replaces the HTTP backend, mainly for tests.
func WithAPI(api backend.API) Option {
	return func(c *Client) { c.api = api }
}

// WithHTTPClient sets the HTTP client used by the default backend.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent the default backend sends.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithStore sets where sessions are persisted. Defaults to a MemoryStore.
func WithStore(store SessionStore) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithClock overrides the time source, including the auto-refresh ticker.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// AsPlaceholder marks the client as non-functional: every service call fails
// with a PlaceholderClient error instead of reaching the network.
func AsPlaceholder() Option {
	return func(c *Client) { c.placeholder = true }
}

// Client is the live handle for one auth project.
type Client struct {
	url         string
	key         string
	placeholder bool
	api         backend.API
	httpClient  *http.Client
	userAgent   string
	store       SessionStore
	storageKey  string
	clock       clockwork.Clock
	log         *log.Entry

	mu      sync.Mutex
	session *Session
	loaded  bool

	// refreshMu serializes refreshes so a rotated refresh token is used once.
	refreshMu sync.Mutex

	listenersMu sync.Mutex
	listeners   []*subscription

	autoMu     sync.Mutex
	autoCancel context.CancelFunc
	autoDone   chan struct{}
}

// NewClient constructs a client for the project at url. It performs no
// network I/O; a bad URL or key only surfaces on the first call.
func NewClient(url, key string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		key:        key,
		store:      NewMemoryStore(),
		storageKey: StorageKey(url),
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.api == nil {
		var bopts []backend.Option
		if c.httpClient != nil {
			bopts = append(bopts, backend.WithHTTPClient(c.httpClient))
		}
		if c.userAgent != "" {
			bopts = append(bopts, backend.WithUserAgent(c.userAgent))
		}
		c.api = backend.New(url, key, bopts...)
	}
	c.log = log.WithField("endpoint", url)
	return c
}

// URL returns the project URL this client is bound to.
func (c *Client) URL() string { return c.url }

// Key returns the publishable key this client authenticates with.
func (c *Client) Key() string { return c.key }

// IsPlaceholder reports whether the client was built without usable credentials.
func (c *Client) IsPlaceholder() bool { return c.placeholder }

// StorageKey returns the key the session is persisted under.
func (c *Client) StorageKey() string { return c.storageKey }

// Health checks connectivity with the project.
func (c *Client) Health(ctx context.Context) (backend.HealthInfo, error) {
	if err := c.checkUsable(); err != nil {
		return backend.HealthInfo{}, err
	}
	return c.api.Health(ctx)
}

// SignInWithPassword signs a user in and emits SIGNED_IN.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	if err := c.checkUsable(); err != nil {
		return nil, err
	}
	s, err := c.api.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.setSession(s)
	c.emit(EventSignedIn, s)
	return s, nil
}

// SignUp creates an account. When the project auto-confirms, the returned
// session is stored and SIGNED_IN is emitted; otherwise the service sends a
// confirmation email and only the pending user is returned.
func (c *Client) SignUp(ctx context.Context, email, password string, opts SignUpOptions) (*SignUpResult, error) {
	if err := c.checkUsable(); err != nil {
		return nil, err
	}
	resp, err := c.api.SignUp(ctx, backend.SignUpRequest{
		Email:      email,
		Password:   password,
		RedirectTo: opts.RedirectTo,
		Data:       opts.Data,
	})
	if err != nil {
		return nil, err
	}
	res := &SignUpResult{User: resp.User, Session: resp.Session}
	if resp.Session != nil {
		c.setSession(resp.Session)
		c.emit(EventSignedIn, resp.Session)
	}
	return res, nil
}

// SignOut revokes the session remotely, then clears it locally and emits
// SIGNED_OUT. Local state is cleared even when the remote call fails; that
// failure is returned. A session the service no longer knows is not an error.
func (c *Client) SignOut(ctx context.Context) error {
	s, loadErr := c.currentSession()
	if loadErr != nil {
		c.log.Warnf("reading stored session before sign-out: %v", loadErr)
	}

	var remoteErr error
	if s != nil && s.AccessToken != "" {
		if err := c.checkUsable(); err != nil {
			remoteErr = err
		} else if err := c.api.Logout(ctx, s.AccessToken, backend.ScopeGlobal); err != nil &&
			!backend.IsAPIError(err, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound) {
			remoteErr = err
		}
	}

	c.clearSession()
	c.emit(EventSignedOut, nil)
	return remoteErr
}

// GetSession returns the current session, loading it from the store on first
// use. A session about to expire is refreshed first. (nil, nil) means nobody
// is signed in.
func (c *Client) GetSession(ctx context.Context) (*Session, error) {
	s, err := c.currentSession()
	if err != nil || s == nil {
		return nil, err
	}
	if s.ExpiresWithin(ExpiryMargin, c.clock.Now()) {
		return c.refresh(ctx, s)
	}
	return s, nil
}

// RefreshSession forces a token refresh of the current session.
func (c *Client) RefreshSession(ctx context.Context) (*Session, error) {
	s, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, liberrors.New(liberrors.InvalidInput, "no session to refresh")
	}
	return c.refresh(ctx, s)
}

// GetUser fetches the signed-in user from the service, which also proves the
// access token is still accepted. (nil, nil) means nobody is signed in.
func (c *Client) GetUser(ctx context.Context) (*User, error) {
	s, err := c.GetSession(ctx)
	if err != nil || s == nil {
		return nil, err
	}
	if err := c.checkUsable(); err != nil {
		return nil, err
	}
	u, err := c.api.GetUser(ctx, s.AccessToken)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.session != nil && c.session.AccessToken == s.AccessToken {
		updated := *c.session
		updated.User = u
		c.session = &updated
		c.persistLocked(&updated)
	}
	c.mu.Unlock()
	return u, nil
}

// refresh exchanges s's refresh token for a new session and emits
// TOKEN_REFRESHED. If the service rejects the refresh token the session is
// dropped and SIGNED_OUT is emitted; transport failures leave it in place.
func (c *Client) refresh(ctx context.Context, s *Session) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Someone else may have refreshed or signed out while we waited.
	cur, err := c.currentSession()
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, nil
	}
	if cur.RefreshToken != s.RefreshToken {
		return cur, nil
	}
	if err := c.checkUsable(); err != nil {
		return nil, err
	}

	ns, err := c.api.RefreshToken(ctx, s.RefreshToken)
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			c.log.Warnf("refresh rejected, signing out: %v", err)
			c.clearSession()
			c.emit(EventSignedOut, nil)
		}
		return nil, err
	}
	if ns.User == nil {
		ns.User = s.User
	}
	c.setSession(ns)
	c.emit(EventTokenRefreshed, ns)
	return ns, nil
}

func (c *Client) checkUsable() error {
	if c.placeholder {
		return liberrors.New(liberrors.PlaceholderClient, "no auth endpoint configured; run 'lovmig config set --url <project-url> --key <publishable-key>'")
	}
	return nil
}

// currentSession returns the cached session, loading it from the store once.
func (c *Client) currentSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.session, nil
	}

	data, err := c.store.LoadSession(c.storageKey)
	if err != nil {
		return nil, liberrors.Wrap(liberrors.SessionStore, "load session", err)
	}
	c.loaded = true
	if len(data) == 0 {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		c.log.Warnf("discarding unreadable stored session: %v", err)
		_ = c.store.ClearSession(c.storageKey)
		return nil, nil
	}
	if s.AccessToken == "" {
		return nil, nil
	}
	c.session = &s
	return c.session, nil
}

func (c *Client) setSession(s *Session) {
	normalizeSession(s, c.clock.Now())
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
	c.loaded = true
	c.persistLocked(s)
}

// persistLocked writes s to the store. Persistence is best effort: the
// in-memory session stays authoritative for this process.
func (c *Client) persistLocked(s *Session) {
	data, err := json.Marshal(s)
	if err != nil {
		c.log.Warnf("encode session: %v", err)
		return
	}
	if err := c.store.SaveSession(c.storageKey, data); err != nil {
		c.log.Warn(liberrors.Wrap(liberrors.SessionStore, "save session", err).Error())
	}
}

func (c *Client) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.loaded = true
	if err := c.store.ClearSession(c.storageKey); err != nil {
		c.log.Warn(liberrors.Wrap(liberrors.SessionStore, "clear session", err).Error())
	}
}
