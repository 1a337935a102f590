package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/backend"
)

// fakeClient is an AuthClient whose behavior each test sets through the
// func fields. It delivers events like *auth.Client: synchronously, in
// registration order.
type fakeClient struct {
	mu        sync.Mutex
	listeners map[int]auth.Listener
	nextID    int

	signIn     func(ctx context.Context, email, password string) (*auth.Session, error)
	signUp     func(ctx context.Context, email, password string, opts auth.SignUpOptions) (*auth.SignUpResult, error)
	signOut    func(ctx context.Context) error
	getSession func(ctx context.Context) (*auth.Session, error)

	signInCalls int
	lastSignUp  auth.SignUpOptions
}

func newFakeClient() *fakeClient {
	return &fakeClient{listeners: make(map[int]auth.Listener)}
}

type fakeSub struct {
	id   int
	c    *fakeClient
	once sync.Once
}

func (s *fakeSub) ID() string { return "sub" }

func (s *fakeSub) Unsubscribe() {
	s.once.Do(func() {
		s.c.mu.Lock()
		delete(s.c.listeners, s.id)
		s.c.mu.Unlock()
	})
}

func (f *fakeClient) OnAuthStateChange(fn auth.Listener) auth.Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.listeners[f.nextID] = fn
	return &fakeSub{id: f.nextID, c: f}
}

func (f *fakeClient) listenerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *fakeClient) emit(ev auth.Event, s *auth.Session) {
	f.mu.Lock()
	fns := make([]auth.Listener, 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ev, s)
	}
}

func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	f.mu.Lock()
	f.signInCalls++
	f.mu.Unlock()
	if f.signIn == nil {
		return nil, errors.New("not implemented")
	}
	s, err := f.signIn(ctx, email, password)
	if err == nil {
		f.emit(auth.EventSignedIn, s)
	}
	return s, err
}

func (f *fakeClient) SignUp(ctx context.Context, email, password string, opts auth.SignUpOptions) (*auth.SignUpResult, error) {
	f.lastSignUp = opts
	if f.signUp == nil {
		return &auth.SignUpResult{User: &auth.User{Email: email}}, nil
	}
	return f.signUp(ctx, email, password, opts)
}

func (f *fakeClient) SignOut(ctx context.Context) error {
	var err error
	if f.signOut != nil {
		err = f.signOut(ctx)
	}
	f.emit(auth.EventSignedOut, nil)
	return err
}

func (f *fakeClient) GetSession(ctx context.Context) (*auth.Session, error) {
	if f.getSession == nil {
		return nil, nil
	}
	return f.getSession(ctx)
}

func sessionFor(email string) *auth.Session {
	return &auth.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh-" + email,
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         &auth.User{ID: "id-" + email, Email: email},
	}
}

func assertConsistent(t *testing.T, s *Synchronizer) {
	t.Helper()
	assert.Equal(t, s.User() != nil, s.IsAuthenticated())
	st := s.State()
	assert.Equal(t, st.User != nil, st.IsAuthenticated())
}

func TestNewRequiresClient(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNoClient)

	var typedNil *auth.Client
	_, err = New(typedNil)
	assert.ErrorIs(t, err, ErrNoClient)

	assert.Panics(t, func() { MustNew(nil) })
	assert.NotPanics(t, func() { MustNew(newFakeClient()) })
}

func TestStartAppliesFetchedSession(t *testing.T) {
	fc := newFakeClient()
	fc.getSession = func(context.Context) (*auth.Session, error) { return sessionFor("a@b.c"), nil }

	s := MustNew(fc)
	assert.Equal(t, Initializing, s.State().Phase)
	assert.False(t, s.Initialized())
	assertConsistent(t, s)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Initialized())
	assert.Equal(t, Authenticated, s.State().Phase)
	require.NotNil(t, s.User())
	assert.Equal(t, "a@b.c", s.User().Email)
	assertConsistent(t, s)
	assert.NoError(t, s.Wait(context.Background()))
}

func TestStartFetchFailureCompletesUnauthenticated(t *testing.T) {
	fc := newFakeClient()
	fc.getSession = func(context.Context) (*auth.Session, error) { return nil, errors.New("keyring locked") }

	s := MustNew(fc)
	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Initialized())
	assert.Equal(t, Unauthenticated, s.State().Phase)
	assert.Nil(t, s.Session())
	assertConsistent(t, s)
}

func TestEventDuringFetchWinsOverFetch(t *testing.T) {
	tests := []struct {
		name      string
		event     auth.Event
		eventSess *auth.Session
		fetched   *auth.Session
		wantUser  string
	}{
		{
			name:      "sign out beats stale session",
			event:     auth.EventSignedOut,
			eventSess: nil,
			fetched:   sessionFor("stale@b.c"),
		},
		{
			name:      "sign in beats empty fetch",
			event:     auth.EventSignedIn,
			eventSess: sessionFor("fresh@b.c"),
			fetched:   nil,
			wantUser:  "fresh@b.c",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := newFakeClient()
			entered := make(chan struct{})
			release := make(chan struct{})
			fc.getSession = func(context.Context) (*auth.Session, error) {
				close(entered)
				<-release
				return tt.fetched, nil
			}

			s := MustNew(fc)
			done := make(chan error, 1)
			go func() { done <- s.Start(context.Background()) }()

			<-entered
			fc.emit(tt.event, tt.eventSess)
			assert.True(t, s.Initialized())
			close(release)
			require.NoError(t, <-done)

			if tt.wantUser == "" {
				assert.Nil(t, s.User())
				assert.Equal(t, Unauthenticated, s.State().Phase)
			} else {
				require.NotNil(t, s.User())
				assert.Equal(t, tt.wantUser, s.User().Email)
			}
			assertConsistent(t, s)
		})
	}
}

func TestLaterEventsOverwriteEachOther(t *testing.T) {
	fc := newFakeClient()
	s := MustNew(fc)
	require.NoError(t, s.Start(context.Background()))

	fc.emit(auth.EventSignedIn, sessionFor("one@b.c"))
	assert.Equal(t, "one@b.c", s.User().Email)
	fc.emit(auth.EventTokenRefreshed, sessionFor("two@b.c"))
	assert.Equal(t, "two@b.c", s.User().Email)
	fc.emit(auth.EventSignedOut, nil)
	assert.Nil(t, s.User())
	assertConsistent(t, s)
}

func TestLoginInvalidCredentials(t *testing.T) {
	fc := newFakeClient()
	fc.signIn = func(context.Context, string, string) (*auth.Session, error) {
		return nil, &backend.APIError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	s := MustNew(fc)
	require.NoError(t, s.Start(context.Background()))

	var res Result
	assert.NotPanics(t, func() { res = s.Login(context.Background(), "a@b.c", "wrong") })
	assert.False(t, res.Success)
	assert.Equal(t, "Invalid login credentials", res.Error)
	assert.Error(t, res.Err)
	assert.False(t, s.IsAuthenticated())
}

func TestLoginNetworkErrorIsResult(t *testing.T) {
	fc := newFakeClient()
	fc.signIn = func(context.Context, string, string) (*auth.Session, error) {
		return nil, errors.New("dial tcp: connection refused")
	}
	s := MustNew(fc)
	res := s.Login(context.Background(), "a@b.c", "pw")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestLoginEmptyInputSkipsService(t *testing.T) {
	fc := newFakeClient()
	s := MustNew(fc)

	for _, in := range [][2]string{{"", "pw"}, {"a@b.c", ""}, {"   ", "pw"}} {
		res := s.Login(context.Background(), in[0], in[1])
		assert.False(t, res.Success)
		assert.NotEmpty(t, res.Error)
	}
	assert.Zero(t, fc.signInCalls)
}

func TestLoginSuccessUpdatesStateThroughEvent(t *testing.T) {
	fc := newFakeClient()
	fc.signIn = func(_ context.Context, email, _ string) (*auth.Session, error) {
		return sessionFor(email), nil
	}
	s := MustNew(fc)
	require.NoError(t, s.Start(context.Background()))

	res := s.Login(context.Background(), " a@b.c ", "pw")
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	require.True(t, s.IsAuthenticated())
	assert.Equal(t, "a@b.c", s.User().Email)
}

func TestSignupSendsRedirect(t *testing.T) {
	fc := newFakeClient()
	s := MustNew(fc, WithRedirectURL("https://app.example.com/lovmig/"))

	res := s.Signup(context.Background(), "new@b.c", "pw")
	assert.True(t, res.Success)
	assert.Equal(t, "https://app.example.com/lovmig/", fc.lastSignUp.RedirectTo)

	def := MustNew(fc)
	def.Signup(context.Background(), "new@b.c", "pw")
	assert.Empty(t, fc.lastSignUp.RedirectTo)
}

func TestSignupFailure(t *testing.T) {
	fc := newFakeClient()
	fc.signUp = func(context.Context, string, string, auth.SignUpOptions) (*auth.SignUpResult, error) {
		return nil, &backend.APIError{Status: http.StatusUnprocessableEntity, Message: "User already registered"}
	}
	s := MustNew(fc)
	res := s.Signup(context.Background(), "dup@b.c", "pw")
	assert.False(t, res.Success)
	assert.Equal(t, "User already registered", res.Error)
}

func TestLogoutAlwaysReturns(t *testing.T) {
	fc := newFakeClient()
	fc.getSession = func(context.Context) (*auth.Session, error) { return sessionFor("a@b.c"), nil }
	fc.signOut = func(context.Context) error { return errors.New("503 service unavailable") }

	s := MustNew(fc)
	require.NoError(t, s.Start(context.Background()))
	require.True(t, s.IsAuthenticated())

	assert.NotPanics(t, func() { s.Logout(context.Background()) })
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, Unauthenticated, s.State().Phase)
}

func TestCloseUnsubscribesAndIsIdempotent(t *testing.T) {
	fc := newFakeClient()
	s := MustNew(fc)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, 1, fc.listenerCount())

	s.Close()
	s.Close()
	assert.Zero(t, fc.listenerCount())
	assert.ErrorIs(t, s.Start(context.Background()), ErrClosed)

	fc.emit(auth.EventSignedIn, sessionFor("late@b.c"))
	assert.Nil(t, s.User())
}

func TestRunClosesOnError(t *testing.T) {
	fc := newFakeClient()
	boom := errors.New("boom")

	err := Run(context.Background(), fc, func(s *Synchronizer) error {
		assert.True(t, s.Initialized())
		assert.Equal(t, 1, fc.listenerCount())
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, fc.listenerCount())

	assert.ErrorIs(t, Run(context.Background(), nil, func(*Synchronizer) error { return nil }), ErrNoClient)
}

func TestRebindMovesSubscription(t *testing.T) {
	oldClient := newFakeClient()
	oldClient.getSession = func(context.Context) (*auth.Session, error) { return sessionFor("old@b.c"), nil }
	newClient := newFakeClient()
	newClient.getSession = func(context.Context) (*auth.Session, error) { return nil, nil }

	s := MustNew(oldClient)
	require.NoError(t, s.Start(context.Background()))
	require.Equal(t, "old@b.c", s.User().Email)

	require.NoError(t, s.Rebind(context.Background(), newClient))
	assert.Zero(t, oldClient.listenerCount())
	assert.Equal(t, 1, newClient.listenerCount())
	assert.Nil(t, s.User())
	assert.Same(t, newClient, s.Client())

	oldClient.emit(auth.EventSignedIn, sessionFor("ghost@b.c"))
	assert.Nil(t, s.User())

	newClient.emit(auth.EventSignedIn, sessionFor("new@b.c"))
	assert.Equal(t, "new@b.c", s.User().Email)

	assert.ErrorIs(t, s.Rebind(context.Background(), nil), ErrNoClient)
}

func TestWatchReceivesStates(t *testing.T) {
	fc := newFakeClient()
	s := MustNew(fc)

	var phases []Phase
	cancel := s.Watch(func(st State) { phases = append(phases, st.Phase) })
	require.NoError(t, s.Start(context.Background()))
	fc.emit(auth.EventSignedIn, sessionFor("a@b.c"))
	cancel()
	fc.emit(auth.EventSignedOut, nil)

	assert.Equal(t, []Phase{Unauthenticated, Authenticated}, phases)
}

func TestWaitHonorsContext(t *testing.T) {
	s := MustNew(newFakeClient())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Wait(ctx), context.DeadlineExceeded)
}

func TestWithRealClientPlaceholder(t *testing.T) {
	c := auth.NewClient("https://placeholder.supabase.co", "placeholder-key", auth.AsPlaceholder())
	s := MustNew(c)
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, Unauthenticated, s.State().Phase)

	res := s.Login(context.Background(), "a@b.c", "pw")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	s.Close()
	assert.Zero(t, c.ListenerCount())
}
