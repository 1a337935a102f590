package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lovmig/cli/internal/auth"
	"lovmig/cli/internal/backend"
)

// offlineAPI is a backend.API whose every network call fails in transport.
type offlineAPI struct {
	logoutCalls int
}

var errOffline = errors.New("dial tcp 127.0.0.1:443: connect: connection refused")

func (a *offlineAPI) Health(context.Context) (backend.HealthInfo, error) {
	return backend.HealthInfo{}, errOffline
}

func (a *offlineAPI) SignInWithPassword(context.Context, string, string) (*backend.Session, error) {
	return nil, errOffline
}

func (a *offlineAPI) SignUp(context.Context, backend.SignUpRequest) (*backend.SignUpResponse, error) {
	return nil, errOffline
}

func (a *offlineAPI) RefreshToken(context.Context, string) (*backend.Session, error) {
	return nil, errOffline
}

func (a *offlineAPI) GetUser(context.Context, string) (*backend.User, error) {
	return nil, errOffline
}

func (a *offlineAPI) Logout(context.Context, string, backend.LogoutScope) error {
	a.logoutCalls++
	return errOffline
}

func TestLogoutClearsExpiredSessionWhileOffline(t *testing.T) {
	const projectURL = "https://abcdefgh.supabase.co"
	store := auth.NewMemoryStore()
	expired := &auth.Session{
		AccessToken:  "at-expired",
		RefreshToken: "rt-expired",
		ExpiresAt:    time.Now().Add(-time.Hour).Unix(),
		User:         &auth.User{ID: "u1", Email: "a@b.c"},
	}
	data, err := json.Marshal(expired)
	require.NoError(t, err)
	key := auth.StorageKey(projectURL)
	require.NoError(t, store.SaveSession(key, data))

	api := &offlineAPI{}
	c := auth.NewClient(projectURL, "anon", auth.WithAPI(api), auth.WithStore(store))
	s := MustNew(c)
	require.NoError(t, s.Start(context.Background()))

	// The refresh failed in transport, so nobody appears signed in while
	// the session is still stored.
	require.False(t, s.IsAuthenticated())
	stored, err := store.LoadSession(key)
	require.NoError(t, err)
	require.NotEmpty(t, stored)

	assert.NotPanics(t, func() { s.Logout(context.Background()) })

	stored, err = store.LoadSession(key)
	require.NoError(t, err)
	assert.Empty(t, stored)
	assert.Equal(t, 1, api.logoutCalls)
	assert.False(t, s.IsAuthenticated())
}
