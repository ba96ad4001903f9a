package mock

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
)

// ProviderConfig configures the fake identity provider.
type ProviderConfig struct {
	// Provider is the name codes are registered under, e.g. "google".
	Provider string

	// ClientID is the expected OAuth client ID. Empty accepts any.
	ClientID string

	// Identifier is the marketplace account the provider signs in as.
	Identifier string

	// Deny sends the user back with this error instead of a code,
	// e.g. "access_denied".
	Deny string

	// Marketplace receives the issued codes so the backend exchange
	// succeeds. Optional.
	Marketplace *MarketplaceServer

	// Debug enables debug logging
	Debug bool
}

// ProviderServer is a fake OAuth authorization page. It approves every
// request at once and redirects to the redirect_uri with a fresh code and
// the caller's state, the way a provider does after the user consents.
type ProviderServer struct {
	config ProviderConfig
	srv    *httptest.Server

	mu    sync.Mutex
	codes []string
}

// NewProviderServer starts a fake provider. Close it when done.
func NewProviderServer(config ProviderConfig) *ProviderServer {
	s := &ProviderServer{config: config}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /authorize", s.handleAuthorize)
	s.srv = httptest.NewServer(mux)
	return s
}

// AuthURL is the authorization endpoint to configure as the provider's authUrl.
func (s *ProviderServer) AuthURL() string {
	return s.srv.URL + "/authorize"
}

// Close shuts the provider down.
func (s *ProviderServer) Close() {
	s.srv.Close()
}

// Codes returns the authorization codes issued so far.
func (s *ProviderServer) Codes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.codes...)
}

func (s *ProviderServer) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clientID := q.Get("client_id")
	state := q.Get("state")

	if s.config.Debug {
		fmt.Fprintf(os.Stderr, "🔐 Authorization request: client_id=%s, redirect_uri=%s, scope=%s\n",
			clientID, q.Get("redirect_uri"), q.Get("scope"))
	}

	if q.Get("response_type") != "code" {
		http.Error(w, "unsupported_response_type", http.StatusBadRequest)
		return
	}
	if s.config.ClientID != "" && clientID != s.config.ClientID {
		http.Error(w, "invalid_client", http.StatusBadRequest)
		return
	}
	redirectURL, err := url.Parse(q.Get("redirect_uri"))
	if err != nil || !redirectURL.IsAbs() {
		http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
		return
	}

	back := redirectURL.Query()
	if s.config.Deny != "" {
		back.Set("error", s.config.Deny)
		back.Set("error_description", "The user denied access")
	} else {
		code := "code-" + randomHex(8)
		s.mu.Lock()
		s.codes = append(s.codes, code)
		s.mu.Unlock()
		if s.config.Marketplace != nil {
			s.config.Marketplace.AddOAuthCode(s.config.Provider, code, s.config.Identifier)
		}
		back.Set("code", code)
	}
	if state != "" {
		back.Set("state", state)
	}
	redirectURL.RawQuery = back.Encode()

	http.Redirect(w, r, redirectURL.String(), http.StatusFound)
}
