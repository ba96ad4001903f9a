package config

import "time"

const (
	// DefaultAPIURL is the backend used when nothing else is configured.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultHTTPTimeout is the per-request transport timeout.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultLoginPath is where unauthenticated navigation is sent.
	DefaultLoginPath = "/login"

	// DefaultCallbackPort is the default port for the local OAuth callback listener.
	DefaultCallbackPort = 3000

	// DefaultStateTTL is how long a pending OAuth state is accepted.
	DefaultStateTTL = 10 * time.Minute
)

// GetDefaultConfig returns default configuration
func GetDefaultConfig() DatamartConfig {
	return DatamartConfig{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: DefaultHTTPTimeout,
		},
		Auth: AuthConfig{
			LoginPath:    DefaultLoginPath,
			CallbackPort: DefaultCallbackPort,
			StateTTL:     DefaultStateTTL,
			Providers: ProvidersConfig{
				Google: ProviderConfig{
					Scopes: []string{"openid", "email", "profile"},
				},
				GitHub: ProviderConfig{
					Scopes: []string{"read:user", "user:email"},
				},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
