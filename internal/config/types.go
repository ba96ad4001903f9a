package config

import "time"

// DatamartConfig is the top-level configuration structure for datamart.
//
// Values are resolved in three layers: defaults, then config.yaml, then
// DATAMART_* environment variables.
type DatamartConfig struct {
	API     APIConfig     `yaml:"api" envPrefix:"API_"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging" envPrefix:"LOG_"`
}

// APIConfig describes how to reach the marketplace backend.
type APIConfig struct {
	URL     string        `yaml:"url,omitempty" env:"URL"`         // Base URL of the backend (default: http://localhost:8000)
	Timeout time.Duration `yaml:"timeout,omitempty" env:"TIMEOUT"` // Per-request transport timeout (default: 30s)
}

// AuthConfig configures the session lifecycle and OAuth providers.
type AuthConfig struct {
	// TokenDir is where the bearer token is persisted.
	// Empty means ~/.config/datamart/tokens.
	TokenDir string `yaml:"tokenDir,omitempty" env:"TOKEN_DIR"`

	// LoginPath is the in-app path unauthenticated navigation is redirected to.
	LoginPath string `yaml:"loginPath,omitempty" env:"LOGIN_PATH"`

	// CallbackPort is the local port the OAuth redirect listener binds to.
	CallbackPort int `yaml:"callbackPort,omitempty" env:"CALLBACK_PORT"`

	// StateTTL bounds how long a pending OAuth state stays valid.
	StateTTL time.Duration `yaml:"stateTTL,omitempty" env:"OAUTH_STATE_TTL"`

	Providers ProvidersConfig `yaml:"providers"`
}

// ProvidersConfig lists the OAuth providers the client can start a flow with.
type ProvidersConfig struct {
	Google ProviderConfig `yaml:"google" envPrefix:"GOOGLE_"`
	GitHub ProviderConfig `yaml:"github" envPrefix:"GITHUB_"`
}

// ProviderConfig holds the public OAuth client settings of one provider.
// The client secret lives on the backend and never in this file.
type ProviderConfig struct {
	ClientID    string   `yaml:"clientId,omitempty" env:"CLIENT_ID"`
	Scopes      []string `yaml:"scopes,omitempty" env:"SCOPES" envSeparator:" "`
	RedirectURL string   `yaml:"redirectUrl,omitempty" env:"REDIRECT_URL"` // Derived from CallbackPort when empty
	AuthURL     string   `yaml:"authUrl,omitempty" env:"AUTH_URL"`         // Overrides the well-known endpoint
	TokenURL    string   `yaml:"tokenUrl,omitempty" env:"TOKEN_URL"`
}

// Enabled reports whether the provider has enough settings to start a flow.
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != ""
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format,omitempty" env:"FORMAT"` // text or json
}
