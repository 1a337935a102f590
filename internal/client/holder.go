// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package client resolves which auth project the CLI talks to and owns the
// authoritative client handle for it.
//
// The endpoint comes from the persisted override when one exists, otherwise
// from the built-in defaults. Without a complete endpoint a placeholder handle
// is built so a handle always exists; calls through it fail at call time.
// Reinitialize swaps in a new handle after the configuration changes and
// tells dependents through OnReplace, so nothing keeps using a stale handle
// for new operations. Operations already running finish on the handle they
// started with.
package client

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/config"
)

// Placeholder endpoint used when no usable configuration exists.
const (
	PlaceholderURL = "https://placeholder.supabase.co"
	PlaceholderKey = "placeholder-key"
)

// Option customizes how a Holder builds clients.
type Option func(*Holder)

// WithSessionStore persists sessions of real (non-placeholder) clients.
func WithSessionStore(store auth.SessionStore) Option {
	return func(h *Holder) { h.store = store }
}

// WithHTTPClient sets the HTTP client every built client uses.
func WithHTTPClient(hc *http.Client) Option {
	return func(h *Holder) { h.httpClient = hc }
}

// WithClientOptions appends raw auth.Client options to every build.
func WithClientOptions(opts ...auth.Option) Option {
	return func(h *Holder) { h.extra = append(h.extra, opts...) }
}

// Build constructs a client bound to ep. When URL or Key is empty a
// placeholder client is returned instead; Build never fails and performs no
// network I/O.
func Build(ep config.Endpoint, opts ...auth.Option) *auth.Client {
	if !ep.Complete() {
		log.Debug("no complete auth endpoint configured, using placeholder client")
		opts = append(opts, auth.AsPlaceholder())
		return auth.NewClient(PlaceholderURL, PlaceholderKey, opts...)
	}
	return auth.NewClient(ep.URL, ep.Key, opts...)
}

// Holder owns the authoritative client handle.
type Holder struct {
	overrides  config.OverrideSource
	defaults   config.Defaults
	store      auth.SessionStore
	httpClient *http.Client
	extra      []auth.Option

	mu      sync.RWMutex
	current *auth.Client

	listenersMu sync.Mutex
	listeners   map[string]func(*auth.Client)
}

// NewHolder resolves the configuration once and builds the initial handle.
func NewHolder(overrides config.OverrideSource, defaults config.Defaults, opts ...Option) *Holder {
	h := &Holder{
		overrides: overrides,
		defaults:  defaults,
		listeners: make(map[string]func(*auth.Client)),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.current = h.build(h.ResolveConfig())
	return h
}

// ResolveConfig returns the override when present, else the defaults.
func (h *Holder) ResolveConfig() config.Endpoint {
	return config.Resolve(h.overrides, h.defaults)
}

// Current returns the handle in effect right now.
func (h *Holder) Current() *auth.Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Reinitialize re-resolves the configuration. Only a complete endpoint
// replaces the current handle; otherwise the previous handle stays. The
// returned handle is the one in effect afterwards.
func (h *Holder) Reinitialize() *auth.Client {
	ep := h.ResolveConfig()
	if !ep.Complete() {
		log.Info("reinitialize skipped: resolved endpoint is incomplete, keeping current client")
		return h.Current()
	}

	next := h.build(ep)
	h.mu.Lock()
	prev := h.current
	h.current = next
	h.mu.Unlock()

	log.WithField("endpoint", ep.URL).Info("auth client reinitialized")
	if prev != nil {
		prev.StopAutoRefresh()
	}
	h.notify(next)
	return next
}

// IsUsingOverride reports whether a persisted override is present.
func (h *Holder) IsUsingOverride() bool {
	return config.UsingOverride(h.overrides)
}

// CurrentEndpoint returns the override URL when set, else the default URL.
func (h *Holder) CurrentEndpoint() string {
	return config.CurrentURL(h.overrides, h.defaults)
}

// OnReplace registers fn to be called with the new handle after every swap.
// The returned function removes the registration.
func (h *Holder) OnReplace(fn func(*auth.Client)) (cancel func()) {
	id := uuid.NewString()
	h.listenersMu.Lock()
	h.listeners[id] = fn
	h.listenersMu.Unlock()
	return func() {
		h.listenersMu.Lock()
		delete(h.listeners, id)
		h.listenersMu.Unlock()
	}
}

func (h *Holder) notify(c *auth.Client) {
	h.listenersMu.Lock()
	fns := make([]func(*auth.Client), 0, len(h.listeners))
	for _, fn := range h.listeners {
		fns = append(fns, fn)
	}
	h.listenersMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

func (h *Holder) build(ep config.Endpoint) *auth.Client {
	opts := append([]auth.Option(nil), h.extra...)
	if h.httpClient != nil {
		opts = append(opts, auth.WithHTTPClient(h.httpClient))
	}
	// Placeholder clients never persist: there is no project to key them by.
	if h.store != nil && ep.Complete() {
		opts = append(opts, auth.WithStore(h.store))
	}
	return Build(ep, opts...)
}
