package mock

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// noRedirects returns the provider's redirect instead of following it.
var noRedirects = &http.Client{
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func authorize(t *testing.T, s *ProviderServer, q url.Values) *http.Response {
	t.Helper()
	resp, err := noRedirects.Get(s.AuthURL() + "?" + q.Encode())
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestProviderServer_RedirectsWithCode(t *testing.T) {
	market := NewMarketplaceServer(MarketplaceConfig{})
	defer market.Close()
	market.AddAccount("a@b.com", "secret", map[string]any{"id": 1, "email": "a@b.com"})

	s := NewProviderServer(ProviderConfig{Provider: "google", ClientID: "client", Identifier: "a@b.com", Marketplace: market})
	defer s.Close()

	resp := authorize(t, s, url.Values{
		"response_type": {"code"},
		"client_id":     {"client"},
		"redirect_uri":  {"http://localhost:9999/auth/oauth/callback"},
		"state":         {"st"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "localhost:9999", loc.Host)
	assert.Equal(t, "st", loc.Query().Get("state"))
	require.Len(t, s.Codes(), 1)
	assert.Equal(t, s.Codes()[0], loc.Query().Get("code"))
}

func TestProviderServer_Deny(t *testing.T) {
	s := NewProviderServer(ProviderConfig{Deny: "access_denied"})
	defer s.Close()

	resp := authorize(t, s, url.Values{
		"response_type": {"code"},
		"redirect_uri":  {"http://localhost:9999/cb"},
		"state":         {"st"},
	})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "access_denied", loc.Query().Get("error"))
	assert.Empty(t, loc.Query().Get("code"))
	assert.Empty(t, s.Codes())
}

func TestProviderServer_RejectsBadRequests(t *testing.T) {
	s := NewProviderServer(ProviderConfig{ClientID: "client"})
	defer s.Close()

	tests := map[string]url.Values{
		"wrong response type": {"response_type": {"token"}, "client_id": {"client"}, "redirect_uri": {"http://localhost/cb"}},
		"wrong client":        {"response_type": {"code"}, "client_id": {"other"}, "redirect_uri": {"http://localhost/cb"}},
		"relative redirect":   {"response_type": {"code"}, "client_id": {"client"}, "redirect_uri": {"/cb"}},
	}
	for name, q := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, authorize(t, s, q).StatusCode)
		})
	}
}
