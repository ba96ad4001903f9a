package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"datamart/internal/backend"
	"datamart/internal/session"

	"golang.org/x/sync/errgroup"
)

// Resource paths on the backend.
const (
	PathDashboard     = "/api/dashboard"
	PathData          = "/api/data"
	PathDataSubmit    = "/api/data/submit"
	PathSubscriptions = "/api/subscriptions"
	PathSettings      = "/api/settings"
	PathProfile       = "/api/settings/profile"
	PathNotifications = "/api/settings/notifications"
	PathAPIKeys       = "/api/settings/api-keys"
)

// Session supplies the bearer token and is told when the backend rejects it.
// *session.Manager implements it.
type Session interface {
	BearerToken() (string, error)
	RejectToken(reason error)
}

// Client calls the marketplace resources on behalf of the logged-in user.
type Client struct {
	api     *backend.Client
	session Session
	now     func() time.Time
}

// NewClient creates a marketplace client.
func NewClient(api *backend.Client, s Session) *Client {
	return &Client{api: api, session: s, now: time.Now}
}

// do performs an authenticated request. A 401 ends the session.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	token, err := c.session.BearerToken()
	if err != nil {
		return err
	}

	err = c.api.Do(ctx, method, path, token, query, in, out)
	if err == nil {
		return nil
	}
	if backend.IsUnauthorized(err) {
		c.session.RejectToken(err)
		return &session.Error{
			Op:      op,
			Kind:    session.ErrAuthenticationRejected,
			Message: "your session is no longer valid; log in again",
			Err:     err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func invalid(op string, err error) error {
	return &session.Error{Op: op, Kind: session.ErrValidationFailure, Message: err.Error()}
}

func resourcePath(base, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "/?#") {
		return "", fmt.Errorf("invalid id %q", id)
	}
	return base + "/" + url.PathEscape(id), nil
}

// Dashboard fetches the dashboard summary.
func (c *Client) Dashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	if err := c.do(ctx, "dashboard", http.MethodGet, PathDashboard, nil, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Overview fetches the dashboard summary and the subscriptions concurrently.
// The first failure cancels the other request.
func (c *Client) Overview(ctx context.Context) (*Overview, error) {
	var (
		dash *Dashboard
		subs []Subscription
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dash, err = c.Dashboard(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		subs, err = c.Subscriptions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Overview{Dashboard: *dash, Subscriptions: subs}, nil
}

// Data lists data points matching filter.
func (c *Client) Data(ctx context.Context, filter DataFilter) ([]DataPoint, error) {
	const op = "list data"
	if err := filter.Validate(); err != nil {
		return nil, invalid(op, err)
	}

	var points []DataPoint
	if err := c.do(ctx, op, http.MethodGet, PathData, filter.Values(), nil, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// SubmitData uploads a data point and returns it as the backend stored it.
func (c *Client) SubmitData(ctx context.Context, sub DataSubmission) (*DataPoint, error) {
	const op = "submit data"
	if s, ok := sub.Value.(string); ok {
		sub.Value = strings.TrimSpace(s)
	}
	if err := sub.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	if sub.Timestamp.IsZero() {
		sub.Timestamp = c.now().UTC()
	}

	var point DataPoint
	if err := c.do(ctx, op, http.MethodPost, PathDataSubmit, nil, sub, &point); err != nil {
		return nil, err
	}
	return &point, nil
}

// Subscriptions lists the user's subscriptions.
func (c *Client) Subscriptions(ctx context.Context) ([]Subscription, error) {
	var subs []Subscription
	if err := c.do(ctx, "list subscriptions", http.MethodGet, PathSubscriptions, nil, nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Subscribe creates a subscription.
func (c *Client) Subscribe(ctx context.Context, req SubscriptionRequest) (*Subscription, error) {
	const op = "subscribe"
	if err := req.Validate(); err != nil {
		return nil, invalid(op, err)
	}

	var sub Subscription
	if err := c.do(ctx, op, http.MethodPost, PathSubscriptions, nil, req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscription changes a subscription.
func (c *Client) UpdateSubscription(ctx context.Context, id string, update SubscriptionUpdate) (*Subscription, error) {
	const op = "update subscription"
	if err := update.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	path, err := resourcePath(PathSubscriptions, id)
	if err != nil {
		return nil, invalid(op, err)
	}

	var sub Subscription
	if err := c.do(ctx, op, http.MethodPut, path, nil, update, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Unsubscribe deletes a subscription.
func (c *Client) Unsubscribe(ctx context.Context, id string) error {
	const op = "unsubscribe"
	path, err := resourcePath(PathSubscriptions, id)
	if err != nil {
		return invalid(op, err)
	}
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, nil)
}

// Settings fetches the account settings.
func (c *Client) Settings(ctx context.Context) (*Settings, error) {
	var s Settings
	if err := c.do(ctx, "settings", http.MethodGet, PathSettings, nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateProfile changes the account profile and returns the result.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*Profile, error) {
	const op = "update profile"
	if err := update.Validate(); err != nil {
		return nil, invalid(op, err)
	}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		update.Name = &name
	}

	var p Profile
	if err := c.do(ctx, op, http.MethodPut, PathProfile, nil, update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateNotifications switches notification kinds and returns the
// resulting preferences.
func (c *Client) UpdateNotifications(ctx context.Context, update NotificationUpdate) (*NotificationSettings, error) {
	const op = "update notifications"
	if err := update.Validate(); err != nil {
		return nil, invalid(op, err)
	}

	var n NotificationSettings
	if err := c.do(ctx, op, http.MethodPut, PathNotifications, nil, update, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateAPIKey creates an API key. The returned key is the only time the
// full secret is available.
func (c *Client) CreateAPIKey(ctx context.Context, name string) (*APIKey, error) {
	const op = "create API key"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(op, fmt.Errorf("name is required"))
	}

	var key APIKey
	body := map[string]string{"name": name}
	if err := c.do(ctx, op, http.MethodPost, PathAPIKeys, nil, body, &key); err != nil {
		return nil, err
	}
	return &key, nil
}

// RevokeAPIKey deletes an API key.
func (c *Client) RevokeAPIKey(ctx context.Context, id string) error {
	const op = "revoke API key"
	path, err := resourcePath(PathAPIKeys, id)
	if err != nil {
		return invalid(op, err)
	}
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, nil)
}
