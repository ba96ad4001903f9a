package session

import (
	"net/url"
	"testing"

	"datamart/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviders_SkipsUnconfigured(t *testing.T) {
	p := NewProviders(config.ProvidersConfig{
		GitHub: config.ProviderConfig{ClientID: "gh", Scopes: []string{"read:user", "user:email"}},
	}, 3000)

	assert.Equal(t, []string{ProviderGitHub}, p.Names())
	assert.True(t, p.Configured(ProviderGitHub))
	assert.False(t, p.Configured(ProviderGoogle))

	_, err := p.AuthCodeURL(ProviderGoogle, "s")
	assert.Error(t, err)
}

func TestProviders_AuthCodeURL(t *testing.T) {
	p := NewProviders(config.ProvidersConfig{
		GitHub: config.ProviderConfig{ClientID: "gh", Scopes: []string{"read:user", "user:email"}},
	}, 4321)

	raw, err := p.AuthCodeURL(ProviderGitHub, "the-state")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "github.com", u.Host)
	assert.Equal(t, "/login/oauth/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "gh", q.Get("client_id"))
	assert.Equal(t, "the-state", q.Get("state"))
	assert.Equal(t, "read:user user:email", q.Get("scope"))
	assert.Equal(t, "http://localhost:4321/auth/oauth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "http://localhost:4321/auth/oauth/callback", p.RedirectURL(ProviderGitHub))
}

func TestProviders_EndpointOverrides(t *testing.T) {
	p := NewProviders(config.ProvidersConfig{
		Google: config.ProviderConfig{
			ClientID:    "g",
			AuthURL:     "https://sso.internal.example.com/authorize",
			RedirectURL: "https://app.example.com/auth/oauth/callback",
		},
	}, 3000)

	raw, err := p.AuthCodeURL(ProviderGoogle, "s")
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sso.internal.example.com", u.Host)
	assert.Equal(t, "https://app.example.com/auth/oauth/callback", u.Query().Get("redirect_uri"))
}

func TestIsRecognizedProvider(t *testing.T) {
	assert.True(t, IsRecognizedProvider("google"))
	assert.True(t, IsRecognizedProvider("github"))
	assert.False(t, IsRecognizedProvider("Google"))
	assert.False(t, IsRecognizedProvider("facebook"))
}
