package session

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeState(t *testing.T) {
	in := OAuthRequestState{Provider: ProviderGitHub, Nonce: "abc123"}
	encoded, err := EncodeState(in)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.JSONEq(t, `{"provider":"github","nonce":"abc123"}`, string(raw))

	out, err := DecodeState(encoded)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeState_Alphabets(t *testing.T) {
	// The nonce is chosen so the encoding contains '+' or '/'.
	payload := []byte(`{"provider":"google","nonce":"??>>??"}`)
	std := base64.StdEncoding.EncodeToString(payload)
	require.True(t, strings.ContainsAny(std, "+/="), "fixture must exercise alphabet differences: %s", std)

	for name, encoded := range map[string]string{
		"std padded":   std,
		"std unpadded": base64.RawStdEncoding.EncodeToString(payload),
		"url padded":   base64.URLEncoding.EncodeToString(payload),
		"url unpadded": base64.RawURLEncoding.EncodeToString(payload),
	} {
		t.Run(name, func(t *testing.T) {
			state, err := DecodeState(encoded)
			require.NoError(t, err)
			assert.Equal(t, "google", state.Provider)
			assert.Equal(t, "??>>??", state.Nonce)
		})
	}
}

func TestDecodeState_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not base64", "***"},
		{"not json", base64.StdEncoding.EncodeToString([]byte("hello"))},
		{"no provider", base64.StdEncoding.EncodeToString([]byte(`{"nonce":"n"}`))},
		{"no nonce", base64.StdEncoding.EncodeToString([]byte(`{"provider":"google"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeState(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	require.NoError(t, err)
	b, err := NewNonce()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	raw, err := base64.RawURLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, nonceBytes)
}
