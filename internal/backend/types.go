package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UserID is the backend's user identifier. Older deployments use integers,
// current ones use UUID strings; both decode to the same form.
type UserID string

// UnmarshalJSON accepts a JSON string or number.
func (id *UserID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = UserID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("user id must be a string or number: %w", err)
	}
	*id = UserID(n.String())
	return nil
}

// UserProfile is the identity record returned by GET /api/auth/me.
//
// Only the commonly used fields are decoded; Raw keeps the full payload.
type UserProfile struct {
	ID       UserID `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
	IsActive *bool  `json:"is_active,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// DisplayName returns the full name, falling back to the email.
func (u *UserProfile) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// decodeUserProfile decodes an identity payload. Anything other than a JSON
// object is malformed.
func decodeUserProfile(body []byte) (*UserProfile, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: identity payload is not an object", ErrMalformedResponse)
	}
	var u UserProfile
	if err := json.Unmarshal(trimmed, &u); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	u.Raw = append(json.RawMessage(nil), trimmed...)
	return &u, nil
}

// TokenResponse is the body of a successful login, registration or OAuth
// exchange. The backend answers with either {token} or the OAuth2 form
// {access_token, token_type}.
type TokenResponse struct {
	Token       string `json:"token,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	TokenType   string `json:"token_type,omitempty"`
}

// Bearer returns whichever token field was set.
func (t *TokenResponse) Bearer() string {
	if t == nil {
		return ""
	}
	if t.Token != "" {
		return t.Token
	}
	return t.AccessToken
}

// Credentials is the login request body.
type Credentials struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
}

// RegisterRequest is the registration request body.
type RegisterRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Password string `json:"password"`
}

// OAuthCallbackRequest is the body sent to /api/auth/oauth/callback.
type OAuthCallbackRequest struct {
	Code     string `json:"code"`
	Provider string `json:"provider"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}
