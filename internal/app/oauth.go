package app

import (
	"context"
	"fmt"
	"net/url"

	"datamart/internal/session"
	"datamart/pkg/logging"
)

// OAuthLogin runs a provider login end to end. It listens for the redirect
// on the configured callback port, starts the flow (which opens the
// provider's page), and hands the redirect to the OAuth callback view. On
// success the session manager lands on the dashboard.
//
// started, if set, receives the authorization URL so the caller can show it
// in case no browser opens.
func (s *Services) OAuthLogin(ctx context.Context, provider string, started func(authURL string)) error {
	ctx, cancel := context.WithTimeout(ctx, session.CallbackTimeout)
	defer cancel()

	cs := session.NewCallbackServer(s.Config.Auth.CallbackPort)
	if _, err := cs.Start(ctx); err != nil {
		return err
	}
	defer cs.Stop()

	authURL, err := s.Session.BeginOAuth(ctx, provider)
	if err != nil {
		return err
	}
	if started != nil {
		started(authURL)
	}

	result, err := cs.WaitForCallback(ctx)
	if err != nil {
		_ = s.Session.CancelOAuth("no redirect received")
		return fmt.Errorf("waiting for the %s redirect: %w", provider, err)
	}
	logging.Debug("OAuth", "Received %s redirect (error=%q)", provider, result.Error)

	return s.Router.Navigate(ctx, CallbackLocation(result))
}

// CallbackLocation turns a received redirect into the in-app callback path.
func CallbackLocation(r *session.CallbackResult) string {
	q := url.Values{}
	for k, v := range map[string]string{
		"code":              r.Code,
		"state":             r.State,
		"error":             r.Error,
		"error_description": r.ErrorDescription,
	} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return session.CallbackPath + "?" + q.Encode()
}
