// Copyright (c) 2025 Lovmig
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session keeps a local, observable view of who is signed in.
//
// A Synchronizer subscribes to a client's auth-state events and fetches the
// current session once. Events always win over that initial fetch: if any
// event lands between subscribing and the fetch resolving, the fetched value
// is stale and is dropped. Login, Signup and Logout forward to the client and
// never return errors; failures come back as a Result or are logged.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/backend"
)

var (
	// ErrNoClient is returned when a Synchronizer is built without a client.
	ErrNoClient = errors.New("session: no auth client provided")
	// ErrClosed is returned by Start and Rebind after Close.
	ErrClosed = errors.New("session: synchronizer closed")
)

// AuthClient is the part of *auth.Client the synchronizer drives.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error)
	SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) (*auth.SignUpResult, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*auth.Session, error)
	OnAuthStateChange(fn auth.Listener) auth.Subscription
}

// Option customizes a Synchronizer.
type Option func(*Synchronizer)

// WithRedirectURL sets where signup confirmation emails send the user.
// Without it no redirect is sent and the service uses its own site URL.
func WithRedirectURL(u string) Option {
	return func(s *Synchronizer) { s.redirectURL = u }
}

// Synchronizer mirrors a client's auth state locally.
type Synchronizer struct {
	redirectURL string
	log         *log.Entry

	mu      sync.RWMutex
	client  AuthClient
	sub     auth.Subscription
	gen     uint64 // bumped on every (re)subscription; stale listeners compare against it
	applied uint64 // events applied so far
	state   State
	started bool
	closed  bool
	ready   chan struct{}
	inited  bool

	watchMu  sync.Mutex
	watchers map[string]func(State)
}

// New builds a Synchronizer around client. It does not subscribe yet; call
// Start, or use Run.
func New(client AuthClient, opts ...Option) (*Synchronizer, error) {
	if isNil(client) {
		return nil, ErrNoClient
	}
	s := &Synchronizer{
		log:         log.WithField("component", "session"),
		client:      client,
		state:       State{Phase: Initializing},
		ready:       make(chan struct{}),
		watchers:    make(map[string]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MustNew is like New but panics when client is nil.
func MustNew(client AuthClient, opts ...Option) *Synchronizer {
	s, err := New(client, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// Run starts a synchronizer for client, calls fn once initialization has
// completed, and closes it when fn returns, whatever the outcome.
func Run(ctx context.Context, client AuthClient, fn func(*Synchronizer) error, opts ...Option) error {
	s, err := New(client, opts...)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Start(ctx); err != nil {
		return err
	}
	return fn(s)
}

// Start subscribes to auth-state events, then fetches the current session.
// It returns once initialization has completed. A failed fetch is logged and
// leaves the state Unauthenticated. Calling Start again is a no-op.
func (s *Synchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	client, gen, mark := s.subscribeLocked()
	s.mu.Unlock()

	s.fetch(ctx, client, gen, mark)
	return nil
}

// Rebind moves the synchronizer to a new client: it unsubscribes from the
// old one, subscribes to the new one and refetches.
func (s *Synchronizer) Rebind(ctx context.Context, client AuthClient) error {
	if isNil(client) {
		return ErrNoClient
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.sub
	s.sub = nil
	s.client = client
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	newClient, gen, mark := s.subscribeLocked()
	s.mu.Unlock()

	if old != nil {
		old.Unsubscribe()
	}
	s.log.Debug("rebound to new auth client")
	s.fetch(ctx, newClient, gen, mark)
	return nil
}

// Close unsubscribes. It is safe to call more than once.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

// subscribeLocked registers a listener on the current client and returns the
// generation and event mark the follow-up fetch must be checked against.
func (s *Synchronizer) subscribeLocked() (AuthClient, uint64, uint64) {
	s.gen++
	gen := s.gen
	client := s.client
	s.sub = client.OnAuthStateChange(func(ev auth.Event, sess *auth.Session) {
		s.onEvent(gen, ev, sess)
	})
	return client, gen, s.applied
}

func (s *Synchronizer) onEvent(gen uint64, ev auth.Event, sess *auth.Session) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.applied++
	s.state = stateFor(sess)
	s.markInitializedLocked()
	st := s.state
	s.mu.Unlock()

	s.log.WithField("event", string(ev)).Debugf("auth state is now %s", st.Phase)
	s.notify(st)
}

func (s *Synchronizer) fetch(ctx context.Context, client AuthClient, gen, mark uint64) {
	sess, err := client.GetSession(ctx)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	switch {
	case s.applied != mark:
		s.log.Debug("dropping initial session fetch: superseded by an auth event")
	case err != nil:
		s.log.Warnf("initial session fetch failed: %v", err)
		s.state = stateFor(nil)
	default:
		s.state = stateFor(sess)
	}
	s.markInitializedLocked()
	st := s.state
	s.mu.Unlock()

	s.notify(st)
}

func (s *Synchronizer) markInitializedLocked() {
	if !s.inited {
		s.inited = true
		close(s.ready)
	}
}

// Login signs in with email and password. It never panics and never
// returns an error; failures are reported in the Result.
func (s *Synchronizer) Login(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return failure("email and password are required", nil)
	}
	if _, err := s.Client().SignInWithPassword(ctx, email, password); err != nil {
		s.log.Warnf("login failed: %v", err)
		return failure(messageOf(err), err)
	}
	return Result{Success: true}
}

// Signup creates an account. Success does not imply a signed-in state: the
// project may require email confirmation first.
func (s *Synchronizer) Signup(ctx context.Context, email, password string) Result {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return failure("email and password are required", nil)
	}
	_, err := s.Client().SignUp(ctx, email, password, auth.SignUpOptions{RedirectTo: s.redirectURL})
	if err != nil {
		s.log.Warnf("signup failed: %v", err)
		return failure(messageOf(err), err)
	}
	return Result{Success: true}
}

// Logout signs out. Failures are logged, not returned; the local state
// follows the SIGNED_OUT event the client emits regardless.
func (s *Synchronizer) Logout(ctx context.Context) {
	if err := s.Client().SignOut(ctx); err != nil {
		s.log.Warnf("logout: %v", err)
	}
}

// Client returns the client currently bound.
func (s *Synchronizer) Client() AuthClient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// RedirectURL returns the signup confirmation target.
func (s *Synchronizer) RedirectURL() string { return s.redirectURL }

// State returns the current snapshot.
func (s *Synchronizer) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Session returns the current session, or nil when signed out.
func (s *Synchronizer) Session() *auth.Session { return s.State().Session }

// User returns the signed-in user, or nil when signed out.
func (s *Synchronizer) User() *auth.User { return s.State().User }

// IsAuthenticated reports whether a user is present in the current state.
func (s *Synchronizer) IsAuthenticated() bool { return s.State().IsAuthenticated() }

// Initialized reports whether the first event or fetch has resolved.
func (s *Synchronizer) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inited
}

// Wait blocks until initialization completes or ctx is done.
func (s *Synchronizer) Wait(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch calls fn with every new state. The returned function stops delivery.
func (s *Synchronizer) Watch(fn func(State)) (cancel func()) {
	id := uuid.NewString()
	s.watchMu.Lock()
	s.watchers[id] = fn
	s.watchMu.Unlock()
	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

func (s *Synchronizer) notify(st State) {
	s.watchMu.Lock()
	fns := make([]func(State), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// messageOf turns a client error into a message fit for a Result.
func messageOf(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "unknown error"
}

func isNil(c AuthClient) bool {
	if c == nil {
		return true
	}
	ac, ok := c.(*auth.Client)
	return ok && ac == nil
}
