package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"datamart/internal/backend"
	"datamart/internal/session"
	"datamart/internal/testing/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*mock.MarketplaceServer, *session.Manager, *Client) {
	t.Helper()

	srv := mock.NewMarketplaceServer(mock.MarketplaceConfig{})
	t.Cleanup(srv.Close)
	srv.AddAccount("a@b.com", "secret", map[string]any{"id": 1, "email": "a@b.com", "full_name": "Ada"})

	api := backend.NewClient(srv.URL(), backend.WithTimeout(2*time.Second))
	store, err := session.NewLocalTokenStore(session.LocalTokenStoreConfig{ServerURL: srv.URL()})
	require.NoError(t, err)
	mgr, err := session.NewManager(session.ManagerConfig{API: api, Tokens: store})
	require.NoError(t, err)

	mgr.Restore(context.Background())
	require.NoError(t, mgr.Login(context.Background(), "a@b.com", "secret"))

	return srv, mgr, NewClient(api, mgr)
}

func TestClient_RequiresSession(t *testing.T) {
	srv, mgr, c := setup(t)
	require.NoError(t, mgr.Logout(context.Background()))
	before := len(srv.Requests())

	_, err := c.Dashboard(context.Background())
	assert.ErrorIs(t, err, session.ErrAuthenticationRejected)
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Len(t, srv.Requests(), before, "no request without a token")
}

func TestClient_UnauthorizedEndsSession(t *testing.T) {
	srv, mgr, c := setup(t)
	srv.Override(http.MethodGet, PathSubscriptions, mock.Response{
		Status: http.StatusUnauthorized,
		Body:   map[string]string{"detail": "Could not validate credentials"},
	})

	_, err := c.Subscriptions(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrAuthenticationRejected)
	assert.True(t, backend.IsUnauthorized(err))

	assert.Equal(t, session.StatusUnauthenticated, mgr.Status())
	assert.ErrorIs(t, mgr.LastError(), session.ErrAuthenticationRejected)
}

func TestClient_OtherErrorsKeepSession(t *testing.T) {
	srv, mgr, c := setup(t)
	srv.Override(http.MethodGet, PathDashboard, mock.Response{
		Status: http.StatusInternalServerError,
		Body:   map[string]string{"detail": "database unavailable"},
	})

	_, err := c.Dashboard(context.Background())
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusInternalServerError))
	assert.Contains(t, err.Error(), "database unavailable")
	assert.Equal(t, session.StatusAuthenticated, mgr.Status())
}

func TestClient_Overview(t *testing.T) {
	srv, _, c := setup(t)
	srv.AddDataPoint(map[string]any{"category": "sensor", "value": 21.5, "quality": "high"})
	srv.AddDataPoint(map[string]any{"category": "market", "value": 3, "quality": "low"})
	_, err := c.Subscribe(context.Background(), SubscriptionRequest{Category: CategorySensor})
	require.NoError(t, err)

	ov, err := c.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, ov.Dashboard.Stats.TotalDataPoints)
	assert.Equal(t, 1, ov.Dashboard.Stats.ActiveSubscriptions)
	assert.InDelta(t, 50.0, ov.Dashboard.Stats.DataQuality, 0.001)
	assert.Len(t, ov.Dashboard.RecentData, 2)
	require.Len(t, ov.Subscriptions, 1)
	assert.Equal(t, CategorySensor, ov.Subscriptions[0].Category)
}

func TestClient_OverviewFailsAsAWhole(t *testing.T) {
	srv, _, c := setup(t)
	srv.Override(http.MethodGet, PathSubscriptions, mock.Response{Status: http.StatusBadGateway})

	ov, err := c.Overview(context.Background())
	assert.Nil(t, ov)
	assert.True(t, backend.IsStatus(err, http.StatusBadGateway))
}

func TestClient_Data(t *testing.T) {
	srv, _, c := setup(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, cat := range []string{"sensor", "sensor", "market", "sensor"} {
		srv.AddDataPoint(map[string]any{
			"category":   cat,
			"value":      i,
			"quality":    "high",
			"created_at": base.Add(time.Duration(i) * 24 * time.Hour).Format(time.RFC3339),
		})
	}

	points, err := c.Data(context.Background(), DataFilter{Category: CategorySensor})
	require.NoError(t, err)
	assert.Len(t, points, 3)
	for _, p := range points {
		assert.Equal(t, CategorySensor, p.Category)
		assert.False(t, p.CreatedAt.IsZero())
	}

	points, err = c.Data(context.Background(), DataFilter{Category: CategorySensor, Start: base.Add(12 * time.Hour), Limit: 1})
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, base.Add(24*time.Hour), points[0].CreatedAt.UTC())

	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	assert.Equal(t, "sensor", last.Query.Get("category"))
	assert.Equal(t, "1", last.Query.Get("limit"))
	assert.Equal(t, "2026-01-01T12:00:00Z", last.Query.Get("start_date"))
}

func TestClient_DataValidation(t *testing.T) {
	srv, _, c := setup(t)
	before := len(srv.Requests())

	filters := []DataFilter{
		{Category: "weather"},
		{Quality: "excellent"},
		{Limit: -1},
		{Start: time.Now(), End: time.Now().Add(-time.Hour)},
	}
	for _, f := range filters {
		_, err := c.Data(context.Background(), f)
		assert.ErrorIs(t, err, session.ErrValidationFailure)
	}
	assert.Len(t, srv.Requests(), before)
}

func TestClient_SubmitData(t *testing.T) {
	srv, _, c := setup(t)
	submitted := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	c.now = func() time.Time { return submitted }

	point, err := c.SubmitData(context.Background(), DataSubmission{
		Category: CategorySensor,
		Value:    ParseValue(" 21.5 "),
		Location: &Location{Latitude: 51.5, Longitude: -0.12},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, point.ID)
	assert.Equal(t, CategorySensor, point.Category)
	assert.Equal(t, 21.5, point.Value)
	assert.Equal(t, QualityUnverified, point.Quality)
	require.NotNil(t, point.Location)
	assert.Equal(t, 51.5, point.Location.Latitude)
	assert.Equal(t, 1, srv.DataPointCount())

	reqs := srv.Requests()
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	assert.Equal(t, "2026-03-04T05:06:07Z", body["timestamp"])
	assert.NotContains(t, body, "quality", "unset fields are not sent")

	points, err := c.Data(context.Background(), DataFilter{Category: CategorySensor})
	require.NoError(t, err)
	assert.Len(t, points, 1, "the explorer lists the upload")
}

func TestClient_SubmitDataValidation(t *testing.T) {
	srv, _, c := setup(t)
	before := len(srv.Requests())

	for _, sub := range []DataSubmission{
		{Value: 1},
		{Category: "weather", Value: 1},
		{Category: CategorySensor},
		{Category: CategorySensor, Value: "   "},
		{Category: CategorySensor, Value: 1, Quality: "excellent"},
		{Category: CategorySensor, Value: 1, PrivacyLevel: "secret"},
		{Category: CategorySensor, Value: 1, Location: &Location{Latitude: 91}},
		{Category: CategorySensor, Value: 1, Location: &Location{Longitude: -181}},
	} {
		_, err := c.SubmitData(context.Background(), sub)
		assert.ErrorIs(t, err, session.ErrValidationFailure, "%+v", sub)
	}
	assert.Len(t, srv.Requests(), before)
}

func TestClient_UpdateProfile(t *testing.T) {
	srv, _, c := setup(t)
	ctx := context.Background()

	name, org := "  Ada King ", "Analytical Engines"
	p, err := c.UpdateProfile(ctx, ProfileUpdate{Name: &name, Organization: &org})
	require.NoError(t, err)
	assert.Equal(t, "Ada King", p.Name)
	assert.Equal(t, "Analytical Engines", p.Organization)
	assert.Equal(t, "a@b.com", p.Email)
	assert.Equal(t, 1, srv.RequestCount(http.MethodPut, PathProfile))

	settings, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada King", settings.Profile.Name)

	before := len(srv.Requests())
	_, err = c.UpdateProfile(ctx, ProfileUpdate{})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
	empty := " "
	_, err = c.UpdateProfile(ctx, ProfileUpdate{Name: &empty})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
	assert.Len(t, srv.Requests(), before)
}

func TestClient_UpdateNotifications(t *testing.T) {
	srv, _, c := setup(t)
	ctx := context.Background()

	var update NotificationUpdate
	require.NoError(t, update.Set(NotifyWebhook, false))
	assert.Error(t, update.Set("sms", true))

	prefs, err := c.UpdateNotifications(ctx, update)
	require.NoError(t, err)
	assert.False(t, prefs.Webhook)
	assert.True(t, prefs.Email, "kinds that are not set keep their value")
	assert.True(t, prefs.FailureAlerts)

	reqs := srv.Requests()
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	assert.Equal(t, map[string]any{"webhook": false}, body)

	_, err = c.UpdateNotifications(ctx, NotificationUpdate{})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
}

func TestClient_MutationsReportErrors(t *testing.T) {
	srv, mgr, c := setup(t)
	ctx := context.Background()

	srv.Override(http.MethodPost, PathDataSubmit, mock.Response{
		Status: http.StatusBadRequest,
		Body:   map[string]string{"detail": "value does not match category"},
	})
	_, err := c.SubmitData(ctx, DataSubmission{Category: CategoryMarket, Value: "up"})
	require.Error(t, err)
	assert.True(t, backend.IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "value does not match category")
	assert.Equal(t, session.StatusAuthenticated, mgr.Status())

	srv.Override(http.MethodPut, PathNotifications, mock.Response{Status: http.StatusUnauthorized})
	on := true
	_, err = c.UpdateNotifications(ctx, NotificationUpdate{Email: &on})
	assert.ErrorIs(t, err, session.ErrAuthenticationRejected)
	assert.Equal(t, session.StatusUnauthenticated, mgr.Status())

	org := "x"
	_, err = c.UpdateProfile(ctx, ProfileUpdate{Organization: &org})
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, 21.5, ParseValue("21.5"))
	assert.Equal(t, float64(-3), ParseValue(" -3 "))
	assert.Equal(t, "rising", ParseValue(" rising "))
	assert.Equal(t, "NaN", ParseValue("NaN"), "JSON has no NaN")
}

func TestClient_SubscriptionLifecycle(t *testing.T) {
	srv, _, c := setup(t)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, SubscriptionRequest{
		Category:        CategoryEnvironmental,
		Filters:         map[string]any{"region": "eu"},
		NotificationURL: "https://hooks.example.com/dm",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.True(t, sub.IsActive)
	assert.Equal(t, "eu", sub.Filters["region"])

	inactive := false
	updated, err := c.UpdateSubscription(ctx, sub.ID, SubscriptionUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.NotNil(t, updated.UpdatedAt)

	reqs := srv.Requests()
	var body map[string]any
	require.NoError(t, json.Unmarshal(reqs[len(reqs)-1].Body, &body))
	assert.Equal(t, map[string]any{"is_active": false}, body, "only set fields are sent")

	require.NoError(t, c.Unsubscribe(ctx, sub.ID))
	assert.Zero(t, srv.SubscriptionCount())

	err = c.Unsubscribe(ctx, sub.ID)
	assert.True(t, backend.IsStatus(err, http.StatusNotFound), "errors are returned, not swallowed")
}

func TestClient_SubscriptionValidation(t *testing.T) {
	srv, _, c := setup(t)
	ctx := context.Background()
	before := len(srv.Requests())

	_, err := c.Subscribe(ctx, SubscriptionRequest{})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
	_, err = c.Subscribe(ctx, SubscriptionRequest{Category: "weather"})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
	_, err = c.Subscribe(ctx, SubscriptionRequest{Category: CategoryMarket, NotificationURL: "ftp://x"})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
	_, err = c.UpdateSubscription(ctx, "sub-1", SubscriptionUpdate{})
	assert.ErrorIs(t, err, session.ErrValidationFailure)
	assert.ErrorIs(t, c.Unsubscribe(ctx, "../settings"), session.ErrValidationFailure)
	assert.ErrorIs(t, c.Unsubscribe(ctx, " "), session.ErrValidationFailure)

	assert.Len(t, srv.Requests(), before)
}

func TestClient_SettingsAndAPIKeys(t *testing.T) {
	_, _, c := setup(t)
	ctx := context.Background()

	key, err := c.CreateAPIKey(ctx, "ci")
	require.NoError(t, err)
	assert.Equal(t, "ci", key.Name)
	assert.NotEmpty(t, key.Key, "secret is returned on creation")
	assert.Equal(t, key.Key[:8], key.KeyPrefix)

	settings, err := c.Settings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", settings.Profile.Email)
	assert.Equal(t, "Ada", settings.Profile.Name)
	assert.True(t, settings.Notifications.FailureAlerts)
	require.Len(t, settings.APIKeys, 1)
	assert.Empty(t, settings.APIKeys[0].Key, "secret is never listed")

	require.NoError(t, c.RevokeAPIKey(ctx, key.ID))
	settings, err = c.Settings(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings.APIKeys)

	_, err = c.CreateAPIKey(ctx, "  ")
	assert.ErrorIs(t, err, session.ErrValidationFailure)
}

func TestDataFilter_Values(t *testing.T) {
	assert.Empty(t, DataFilter{}.Values())

	q := DataFilter{
		Category: CategoryAITraining,
		Quality:  QualityMedium,
		End:      time.Date(2026, 2, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600)),
		Limit:    20,
	}.Values()
	assert.Equal(t, "ai_training", q.Get("category"))
	assert.Equal(t, "medium", q.Get("quality"))
	assert.Equal(t, "2026-02-01T09:00:00Z", q.Get("end_date"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.False(t, q.Has("start_date"))
}
