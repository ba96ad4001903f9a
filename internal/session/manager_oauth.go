package session

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"

	"datamart/internal/backend"
	"datamart/pkg/logging"
)

// BeginOAuth starts an authorization-code flow with provider. It stores a
// fresh state for the callback to be checked against, navigates to the
// provider's authorization page and returns its URL. A second call replaces
// the pending state of the first.
func (m *Manager) BeginOAuth(ctx context.Context, provider string) (string, error) {
	const op = "oauth"

	if !IsRecognizedProvider(provider) {
		return "", newError(op, ErrValidationFailure, fmt.Sprintf("unknown provider %q", provider))
	}
	if !m.providers.Configured(provider) {
		return "", newError(op, ErrValidationFailure,
			fmt.Sprintf("provider %q is not configured; set auth.providers.%s.clientId", provider, provider))
	}

	nonce, err := NewNonce()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	state, err := EncodeState(OAuthRequestState{Provider: provider, Nonce: nonce})
	if err != nil {
		return "", fmt.Errorf("%s: failed to encode state: %w", op, err)
	}

	authURL, err := m.providers.AuthCodeURL(provider, state)
	if err != nil {
		return "", newError(op, ErrValidationFailure, err.Error())
	}

	m.states.Put(oauthStateKey, state)
	logging.Debug("Session", "Started %s authorization flow", provider)

	m.navigate(authURL)
	return authURL, nil
}

// PendingOAuth reports whether a flow is waiting for its callback.
func (m *Manager) PendingOAuth() bool {
	return m.states.Has(oauthStateKey)
}

// CompleteOAuth handles the provider redirect. Missing or malformed
// parameters, an unrecognized provider, or a state that does not match the
// pending flow fail with ErrInvalidCallback and leave the session untouched.
// A failed exchange leaves the session Unauthenticated with the error
// recorded; it is not retried.
func (m *Manager) CompleteOAuth(ctx context.Context, code, state string) error {
	const op = "oauth callback"

	if code == "" || state == "" {
		return newError(op, ErrInvalidCallback, "missing code or state")
	}
	decoded, err := DecodeState(state)
	if err != nil {
		return &Error{Op: op, Kind: ErrInvalidCallback, Message: "malformed state", Err: err}
	}
	if !IsRecognizedProvider(decoded.Provider) {
		return newError(op, ErrInvalidCallback, fmt.Sprintf("unrecognized provider %q", decoded.Provider))
	}

	// The pending state is single-use whether or not it matches.
	pending, ok := m.states.Take(oauthStateKey)
	if !ok {
		return newError(op, ErrInvalidCallback, "no authorization flow is pending")
	}
	if subtle.ConstantTimeCompare([]byte(pending), []byte(state)) != 1 {
		logging.Audit(logging.AuditEvent{Event: "oauth_state_mismatch", Target: decoded.Provider, Outcome: "rejected"})
		return newError(op, ErrInvalidCallback, "state does not match the pending flow")
	}

	m.settleUnresolved()

	tr, err := m.api.ExchangeOAuthCode(ctx, code, decoded.Provider)
	if err != nil {
		serr := classify(op, err)
		if backend.IsStatus(err, http.StatusBadRequest) {
			serr.Kind = ErrInvalidCallback
		}
		m.failOAuth(serr)
		return serr
	}

	if err := m.establish(ctx, op, tr.Bearer()); err != nil {
		return err
	}
	m.navigate(m.homePath)
	return nil
}

// CancelOAuth abandons the pending flow, e.g. when the provider redirected
// back with an error instead of a code.
func (m *Manager) CancelOAuth(reason string) error {
	m.states.Take(oauthStateKey)
	return newError("oauth callback", ErrInvalidCallback, reason)
}

// failOAuth resolves a failed exchange to Unauthenticated. A session that was
// authenticated before the flow started loses its token too, so the status
// and the store stay in agreement.
func (m *Manager) failOAuth(err *Error) {
	m.mu.Lock()
	hadToken := m.token != ""
	m.transitionLocked(StatusUnauthenticated, nil, "", err)
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if hadToken {
		m.discardToken()
	}
	m.notify(snap)
}
