package session

import (
	"fmt"
	"sort"

	"datamart/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Recognized OAuth providers.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// CallbackPath is the redirect path providers send the user back to.
const CallbackPath = "/auth/oauth/callback"

// wellKnownEndpoints maps each recognized provider to its authorization server.
var wellKnownEndpoints = map[string]oauth2.Endpoint{
	ProviderGoogle: google.Endpoint,
	ProviderGitHub: github.Endpoint,
}

// IsRecognizedProvider reports whether name is a provider the client knows.
func IsRecognizedProvider(name string) bool {
	_, ok := wellKnownEndpoints[name]
	return ok
}

// Providers holds the OAuth client settings of the configured providers.
// Only the authorization URL is built client-side; the code exchange happens
// on the backend, which owns the client secrets.
type Providers struct {
	configs map[string]*oauth2.Config
}

// DefaultRedirectURL is the loopback callback for the given port.
func DefaultRedirectURL(port int) string {
	return fmt.Sprintf("http://localhost:%d%s", port, CallbackPath)
}

// NewProviders builds the provider registry from configuration. Providers
// without a client ID are left out.
func NewProviders(cfg config.ProvidersConfig, callbackPort int) *Providers {
	p := &Providers{configs: make(map[string]*oauth2.Config)}
	p.add(ProviderGoogle, cfg.Google, callbackPort)
	p.add(ProviderGitHub, cfg.GitHub, callbackPort)
	return p
}

func (p *Providers) add(name string, pc config.ProviderConfig, callbackPort int) {
	if !pc.Enabled() {
		return
	}

	endpoint := wellKnownEndpoints[name]
	if pc.AuthURL != "" {
		endpoint.AuthURL = pc.AuthURL
	}
	if pc.TokenURL != "" {
		endpoint.TokenURL = pc.TokenURL
	}

	redirectURL := pc.RedirectURL
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL(callbackPort)
	}

	p.configs[name] = &oauth2.Config{
		ClientID:    pc.ClientID,
		Endpoint:    endpoint,
		RedirectURL: redirectURL,
		Scopes:      append([]string(nil), pc.Scopes...),
	}
}

// Names returns the configured provider names, sorted.
func (p *Providers) Names() []string {
	names := make([]string, 0, len(p.configs))
	for name := range p.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configured reports whether provider can start a flow.
func (p *Providers) Configured(provider string) bool {
	_, ok := p.configs[provider]
	return ok
}

// RedirectURL returns the redirect URI registered for provider.
func (p *Providers) RedirectURL(provider string) string {
	if c, ok := p.configs[provider]; ok {
		return c.RedirectURL
	}
	return ""
}

// AuthCodeURL builds the authorization URL for provider carrying state.
func (p *Providers) AuthCodeURL(provider, state string) (string, error) {
	c, ok := p.configs[provider]
	if !ok {
		return "", fmt.Errorf("provider %q is not configured", provider)
	}
	return c.AuthCodeURL(state), nil
}
