package session

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"datamart/internal/backend"
	"datamart/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stdState(json string) string {
	return base64.StdEncoding.EncodeToString([]byte(json))
}

func TestManager_BeginOAuth(t *testing.T) {
	f := newFixture(t)

	authURL, err := f.mgr.BeginOAuth(context.Background(), ProviderGoogle)
	require.NoError(t, err)
	require.True(t, f.mgr.PendingOAuth())
	assert.Equal(t, []string{authURL}, f.nav.Targets())

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)

	q := u.Query()
	assert.Equal(t, "google-client", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "http://localhost:3000/auth/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "openid email profile", q.Get("scope"))

	state, err := DecodeState(q.Get("state"))
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, state.Provider)
	assert.NotEmpty(t, state.Nonce)
}

func TestManager_BeginOAuthRejectsProvider(t *testing.T) {
	f := newFixture(t)

	for _, provider := range []string{"facebook", "", ProviderGitHub} {
		_, err := f.mgr.BeginOAuth(context.Background(), provider)
		assert.ErrorIs(t, err, ErrValidationFailure, "provider %q", provider)
	}
	assert.False(t, f.mgr.PendingOAuth())
	assert.Empty(t, f.nav.Targets())
}

func TestManager_BeginOAuthNoncesAreUnique(t *testing.T) {
	mgr, err := NewManager(ManagerConfig{
		API:       backend.NewClient("http://127.0.0.1:1"),
		Tokens:    newMemStore(""),
		Providers: testProviders(),
		Navigator: NavigatorFunc(func(string) error { return nil }),
	})
	require.NoError(t, err)

	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		authURL, err := mgr.BeginOAuth(context.Background(), ProviderGoogle)
		require.NoError(t, err)
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		state, err := DecodeState(u.Query().Get("state"))
		require.NoError(t, err)
		seen[state.Nonce] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestManager_CompleteOAuthScenario(t *testing.T) {
	f := newFixture(t)
	f.srv.AddAccount("o@b.com", "", map[string]any{"id": 7, "email": "o@b.com"})
	f.srv.AddOAuthCode(ProviderGoogle, "codeXYZ", "o@b.com")
	f.mgr.Restore(context.Background())

	state := stdState(`{"provider":"google","nonce":"n1"}`)
	f.mgr.states.Put(oauthStateKey, state)

	require.NoError(t, f.mgr.CompleteOAuth(context.Background(), "codeXYZ", state))

	snap := f.mgr.Snapshot()
	assert.Equal(t, StatusAuthenticated, snap.Status)
	assert.Equal(t, "o@b.com", snap.User.Email)
	assert.NotEmpty(t, storedToken(t, f.store))
	assert.Equal(t, []string{"/"}, f.nav.Targets())
	assert.False(t, f.mgr.PendingOAuth())

	reqs := f.srv.Requests()
	var exchanged bool
	for _, r := range reqs {
		if r.Path == backend.PathOAuthCallback {
			exchanged = true
			assert.JSONEq(t, `{"code":"codeXYZ","provider":"google"}`, string(r.Body))
		}
	}
	assert.True(t, exchanged)

	require.NoError(t, f.mgr.Logout(context.Background()))
	assert.Equal(t, StatusUnauthenticated, f.mgr.Status())
	assert.Empty(t, storedToken(t, f.store))
}

func TestManager_CompleteOAuthRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.srv.AddAccount("o@b.com", "", nil)
	f.srv.AddOAuthCode(ProviderGoogle, "c1", "o@b.com")
	f.mgr.Restore(context.Background())

	authURL, err := f.mgr.BeginOAuth(context.Background(), ProviderGoogle)
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)

	// Some providers hand the state back URL-safe and unpadded.
	state := u.Query().Get("state")
	mangled := strings.TrimRight(strings.NewReplacer("+", "-", "/", "_").Replace(state), "=")
	_, err = DecodeState(mangled)
	require.NoError(t, err)

	require.NoError(t, f.mgr.CompleteOAuth(context.Background(), "c1", state))
	assert.Equal(t, StatusAuthenticated, f.mgr.Status())
}

func TestManager_CompleteOAuthInvalidCallback(t *testing.T) {
	pending := stdState(`{"provider":"google","nonce":"n1"}`)

	tests := []struct {
		name         string
		code         string
		state        string
		stillPending bool
	}{
		{name: "missing code", code: "", state: pending, stillPending: true},
		{name: "missing state", code: "c", state: "", stillPending: true},
		{name: "not base64", code: "c", state: "%%%not-base64%%%", stillPending: true},
		{name: "not JSON", code: "c", state: stdState("not json"), stillPending: true},
		{name: "no nonce", code: "c", state: stdState(`{"provider":"google"}`), stillPending: true},
		{name: "unknown provider", code: "c", state: stdState(`{"provider":"facebook","nonce":"n1"}`), stillPending: true},
		{name: "nonce mismatch", code: "c", state: stdState(`{"provider":"google","nonce":"other"}`)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.srv.AddAccount("a@b.com", "secret", nil)
			f.mgr.Restore(context.Background())
			require.NoError(t, f.mgr.Login(context.Background(), "a@b.com", "secret"))
			f.mgr.states.Put(oauthStateKey, pending)
			token := storedToken(t, f.store)
			before := f.mgr.Snapshot()

			err := f.mgr.CompleteOAuth(context.Background(), tc.code, tc.state)
			assert.ErrorIs(t, err, ErrInvalidCallback)

			assert.Equal(t, before, f.mgr.Snapshot(), "session must be untouched")
			assert.Equal(t, token, storedToken(t, f.store))
			assert.Equal(t, tc.stillPending, f.mgr.PendingOAuth())
			assert.Zero(t, f.srv.RequestCount(http.MethodPost, backend.PathOAuthCallback))
		})
	}
}

func TestManager_CompleteOAuthWithoutPendingFlow(t *testing.T) {
	f := newFixture(t)
	f.srv.AddAccount("o@b.com", "", nil)
	f.srv.AddOAuthCode(ProviderGoogle, "c1", "o@b.com")
	f.mgr.Restore(context.Background())

	state := stdState(`{"provider":"google","nonce":"n1"}`)
	f.mgr.states.Put(oauthStateKey, state)
	require.NoError(t, f.mgr.CompleteOAuth(context.Background(), "c1", state))

	// Replaying the same redirect finds nothing pending.
	err := f.mgr.CompleteOAuth(context.Background(), "c1", state)
	assert.ErrorIs(t, err, ErrInvalidCallback)
	assert.Equal(t, StatusAuthenticated, f.mgr.Status())
	assert.Equal(t, 1, f.srv.RequestCount(http.MethodPost, backend.PathOAuthCallback))
}

func TestManager_CompleteOAuthExpiredState(t *testing.T) {
	f := newFixture(t)
	f.mgr.Restore(context.Background())

	state := stdState(`{"provider":"google","nonce":"n1"}`)
	f.mgr.states.Put(oauthStateKey, state)
	f.clock.Advance(DefaultStateTTL + time.Second)

	err := f.mgr.CompleteOAuth(context.Background(), "c1", state)
	assert.ErrorIs(t, err, ErrInvalidCallback)
	assert.Equal(t, StatusUnauthenticated, f.mgr.Status())
	assert.NoError(t, f.mgr.LastError())
}

func TestManager_CompleteOAuthExchangeFails(t *testing.T) {
	tests := []struct {
		name     string
		response *mock.Response
		wantKind error
	}{
		{name: "code rejected", wantKind: ErrInvalidCallback},
		{
			name:     "server error",
			response: &mock.Response{Status: http.StatusInternalServerError, Body: map[string]string{"detail": "provider down"}},
			wantKind: ErrAuthenticationRejected,
		},
		{
			name:     "no token in answer",
			response: &mock.Response{Status: http.StatusOK, Body: map[string]string{"token_type": "bearer"}},
			wantKind: ErrAuthenticationRejected,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.srv.AddAccount("a@b.com", "secret", nil)
			f.mgr.Restore(context.Background())
			require.NoError(t, f.mgr.Login(context.Background(), "a@b.com", "secret"))
			if tc.response != nil {
				f.srv.Override(http.MethodPost, backend.PathOAuthCallback, *tc.response)
			}

			state := stdState(`{"provider":"google","nonce":"n1"}`)
			f.mgr.states.Put(oauthStateKey, state)

			err := f.mgr.CompleteOAuth(context.Background(), "unknown-code", state)
			assert.ErrorIs(t, err, tc.wantKind)

			snap := f.mgr.Snapshot()
			assert.Equal(t, StatusUnauthenticated, snap.Status)
			assert.ErrorIs(t, snap.Err, tc.wantKind)
			assert.Empty(t, storedToken(t, f.store))
			assert.Empty(t, f.nav.Targets())
			assert.Equal(t, 1, f.srv.RequestCount(http.MethodPost, backend.PathOAuthCallback), "exchange is not retried")
		})
	}
}

func TestManager_CancelOAuth(t *testing.T) {
	f := newFixture(t)
	_, err := f.mgr.BeginOAuth(context.Background(), ProviderGoogle)
	require.NoError(t, err)

	err = f.mgr.CancelOAuth("access_denied")
	assert.ErrorIs(t, err, ErrInvalidCallback)
	assert.Contains(t, err.Error(), "access_denied")
	assert.False(t, f.mgr.PendingOAuth())
}
