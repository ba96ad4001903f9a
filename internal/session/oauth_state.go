package session

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// nonceBytes is the amount of randomness in an OAuth state nonce.
const nonceBytes = 32

// OAuthRequestState is round-tripped through the provider in the state
// query parameter. The nonce ties the callback to the flow that started it.
type OAuthRequestState struct {
	Provider string `json:"provider"`
	Nonce    string `json:"nonce"`
}

// NewNonce returns a base64url-encoded random nonce from crypto/rand.
func NewNonce() (string, error) {
	b := make([]byte, nonceBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// EncodeState serializes state as base64 of its JSON form.
func EncodeState(state OAuthRequestState) (string, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeState parses a state parameter. Both the standard and URL-safe
// base64 alphabets are accepted, padded or not, because some providers and
// browsers rewrite the padding on the way back.
func DecodeState(raw string) (OAuthRequestState, error) {
	var state OAuthRequestState
	if raw == "" {
		return state, errors.New("state is empty")
	}

	trimmed := strings.TrimRight(raw, "=")
	var data []byte
	var err error
	for _, enc := range []*base64.Encoding{base64.RawStdEncoding, base64.RawURLEncoding} {
		if data, err = enc.DecodeString(trimmed); err == nil {
			break
		}
	}
	if err != nil {
		return state, fmt.Errorf("state is not base64: %w", err)
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, fmt.Errorf("state is not JSON: %w", err)
	}
	if state.Provider == "" {
		return state, errors.New("state names no provider")
	}
	if state.Nonce == "" {
		return state, errors.New("state carries no nonce")
	}
	return state, nil
}
