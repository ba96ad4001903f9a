package config

import (
	"fmt"
	"net/url"
	"strings"

	"datamart/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// ValidateConfig checks a fully merged configuration.
func ValidateConfig(c DatamartConfig) ValidationErrors {
	var errs ValidationErrors

	validateHTTPURL(&errs, "api.url", c.API.URL, true)
	if c.API.Timeout <= 0 {
		errs.Add("api.timeout", "must be positive", c.API.Timeout)
	}

	if !strings.HasPrefix(c.Auth.LoginPath, "/") {
		errs.Add("auth.loginPath", "must be an absolute in-app path", c.Auth.LoginPath)
	}
	if c.Auth.CallbackPort < 0 || c.Auth.CallbackPort > 65535 {
		errs.Add("auth.callbackPort", "must be between 0 and 65535", c.Auth.CallbackPort)
	}
	if c.Auth.StateTTL <= 0 {
		errs.Add("auth.stateTTL", "must be positive", c.Auth.StateTTL)
	}

	derivedRedirect := false
	for name, p := range map[string]ProviderConfig{
		"google": c.Auth.Providers.Google,
		"github": c.Auth.Providers.GitHub,
	} {
		prefix := "auth.providers." + name
		validateHTTPURL(&errs, prefix+".redirectUrl", p.RedirectURL, false)
		validateHTTPURL(&errs, prefix+".authUrl", p.AuthURL, false)
		validateHTTPURL(&errs, prefix+".tokenUrl", p.TokenURL, false)
		if p.Enabled() && p.RedirectURL == "" {
			derivedRedirect = true
		}
	}
	// A derived redirect URI names the callback port.
	if c.Auth.CallbackPort == 0 && derivedRedirect {
		errs.Add("auth.callbackPort", "must be set when a provider has no redirectUrl", c.Auth.CallbackPort)
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs.Add("logging.level", err.Error(), c.Logging.Level)
	}
	switch logging.Format(strings.ToLower(c.Logging.Format)) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		errs.Add("logging.format", "must be text or json", c.Logging.Format)
	}

	return errs
}

func validateHTTPURL(errs *ValidationErrors, field, raw string, required bool) {
	if raw == "" {
		if required {
			errs.Add(field, "is required")
		}
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		errs.Add(field, fmt.Sprintf("invalid URL: %v", err), raw)
		return
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add(field, "must be an absolute http(s) URL", raw)
	}
}
