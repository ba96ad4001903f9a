package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateConfig_Defaults(t *testing.T) {
	errs := ValidateConfig(GetDefaultConfig())
	assert.False(t, errs.HasErrors(), "defaults must validate: %v", errs)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*DatamartConfig)
		field  string
	}{
		{"missing api url", func(c *DatamartConfig) { c.API.URL = "" }, "api.url"},
		{"relative api url", func(c *DatamartConfig) { c.API.URL = "/api" }, "api.url"},
		{"zero timeout", func(c *DatamartConfig) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative state ttl", func(c *DatamartConfig) { c.Auth.StateTTL = -1 }, "auth.stateTTL"},
		{"bad redirect url", func(c *DatamartConfig) { c.Auth.Providers.Google.RedirectURL = "not a url" }, "auth.providers.google.redirectUrl"},
		{"random callback port with derived redirect", func(c *DatamartConfig) {
			c.Auth.CallbackPort = 0
			c.Auth.Providers.GitHub.ClientID = "gh-client"
		}, "auth.callbackPort"},
		{"bad log level", func(c *DatamartConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad log format", func(c *DatamartConfig) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tc.mutate(&cfg)

			errs := ValidateConfig(cfg)
			if assert.Len(t, errs, 1) {
				assert.Equal(t, tc.field, errs[0].Field)
			}
		})
	}
}

func TestValidateConfig_RandomCallbackPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Auth.CallbackPort = 0
	assert.False(t, ValidateConfig(cfg).HasErrors(), "no provider needs the port")

	cfg.Auth.Providers.Google.ClientID = "google-client"
	cfg.Auth.Providers.Google.RedirectURL = "https://app.example.com/auth/oauth/callback"
	assert.False(t, ValidateConfig(cfg).HasErrors(), "an explicit redirectUrl does not depend on the port")

	cfg.Auth.Providers.GitHub.ClientID = "gh-client"
	errs := ValidateConfig(cfg)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "auth.callbackPort", errs[0].Field)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "bad")
	assert.Equal(t, "field 'a': bad", errs.Error())

	errs.Add("b", "worse")
	assert.Equal(t, "validation failed: field 'a': bad; field 'b': worse", errs.Error())
}
