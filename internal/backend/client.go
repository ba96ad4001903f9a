package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 4 << 20

	// RequestIDHeader correlates a call with the backend logs.
	RequestIDHeader = "X-Request-ID"
)

// API paths.
const (
	PathMe            = "/api/auth/me"
	PathLogin         = "/api/auth/login"
	PathRegister      = "/api/auth/register"
	PathLogout        = "/api/auth/logout"
	PathOAuthCallback = "/api/auth/oauth/callback"
	PathVerifyEmail   = "/api/auth/verify-email"
)

// Client talks to the marketplace REST backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	requestID  func() string
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: timeout}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDFunc overrides how X-Request-ID values are generated.
func WithRequestIDFunc(fn func() string) ClientOption {
	return func(c *Client) {
		c.requestID = fn
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
		requestID:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend URL the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Me fetches the identity behind token.
func (c *Client) Me(ctx context.Context, token string) (*UserProfile, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, PathMe, token, nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeUserProfile(raw)
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, identifier, secret string) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.Do(ctx, http.MethodPost, PathLogin, "", nil, Credentials{Identifier: identifier, Secret: secret}, &tr); err != nil {
		return nil, err
	}
	if tr.Bearer() == "" {
		return nil, ErrMissingToken
	}
	return &tr, nil
}

// Register creates an account. Deployments that require email verification
// answer with the created user instead of a token; the returned response is
// then empty and Bearer() yields "".
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.Do(ctx, http.MethodPost, PathRegister, "", nil, req, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Logout tells the backend the token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.Do(ctx, http.MethodPost, PathLogout, token, nil, nil, nil)
}

// ExchangeOAuthCode trades a provider authorization code for a bearer token.
// The client secret lives on the backend, which performs the provider exchange.
func (c *Client) ExchangeOAuthCode(ctx context.Context, code, provider string) (*TokenResponse, error) {
	var tr TokenResponse
	if err := c.Do(ctx, http.MethodPost, PathOAuthCallback, "", nil, OAuthCallbackRequest{Code: code, Provider: provider}, &tr); err != nil {
		return nil, err
	}
	if tr.Bearer() == "" {
		return nil, ErrMissingToken
	}
	return &tr, nil
}

// VerifyEmail confirms an email address with the token from the verification mail.
func (c *Client) VerifyEmail(ctx context.Context, verificationToken string) error {
	return c.Do(ctx, http.MethodPost, PathVerifyEmail, "", nil, verifyEmailRequest{Token: verificationToken}, nil)
}

// Do performs one JSON request. A non-empty token is sent as a bearer
// credential. in is encoded as the request body when non-nil; out receives the
// decoded response when non-nil. Non-2xx answers return *StatusError and
// failures to reach the backend return *TransportError.
func (c *Client) Do(ctx context.Context, method, path, token string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := c.requestID()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Backend request failed",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err)
		return ClassifyTransportError(err, c.baseURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ClassifyTransportError(fmt.Errorf("failed to read response: %w", err), c.baseURL)
	}

	c.logger.Debug("Backend request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(respBody),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		if raw, ok := out.(*json.RawMessage); ok {
			*raw = nil
		}
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, path, err)
	}
	return nil
}
