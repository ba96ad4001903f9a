package marketplace

import (
	"fmt"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Data categories accepted by the backend.
const (
	CategorySensor        = "sensor"
	CategoryBehavioral    = "behavioral"
	CategoryEnvironmental = "environmental"
	CategoryMarket        = "market"
	CategoryAITraining    = "ai_training"
)

// Data quality grades.
const (
	QualityHigh       = "high"
	QualityMedium     = "medium"
	QualityLow        = "low"
	QualityUnverified = "unverified"
)

// Privacy levels of a data point.
const (
	PrivacyPublic    = "public"
	PrivacyProtected = "protected"
	PrivacyPrivate   = "private"
	PrivacySensitive = "sensitive"
)

// Categories lists every data category in display order.
var Categories = []string{CategorySensor, CategoryBehavioral, CategoryEnvironmental, CategoryMarket, CategoryAITraining}

// Qualities lists every quality grade from best to worst.
var Qualities = []string{QualityHigh, QualityMedium, QualityLow, QualityUnverified}

// PrivacyLevels lists every privacy level from least to most restricted.
var PrivacyLevels = []string{PrivacyPublic, PrivacyProtected, PrivacyPrivate, PrivacySensitive}

// Location is where a data point was recorded.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate checks the coordinates are on the globe.
func (l Location) Validate() error {
	if l.Latitude < -90 || l.Latitude > 90 {
		return fmt.Errorf("latitude %g is out of range", l.Latitude)
	}
	if l.Longitude < -180 || l.Longitude > 180 {
		return fmt.Errorf("longitude %g is out of range", l.Longitude)
	}
	return nil
}

// DataPoint is one record in the marketplace.
type DataPoint struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Value        any            `json:"value"`
	Quality      string         `json:"quality"`
	PrivacyLevel string         `json:"privacy_level,omitempty"`
	Location     *Location      `json:"location,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// DataSubmission uploads one data point. Value is a number, a string or
// structured JSON. Timestamp defaults to the time of submission.
type DataSubmission struct {
	Category     string         `json:"category"`
	Value        any            `json:"value"`
	Quality      string         `json:"quality,omitempty"`
	PrivacyLevel string         `json:"privacy_level,omitempty"`
	Location     *Location      `json:"location,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Validate checks the submission before it is sent.
func (d DataSubmission) Validate() error {
	if d.Category == "" {
		return fmt.Errorf("category is required")
	}
	if !slices.Contains(Categories, d.Category) {
		return fmt.Errorf("unknown category %q", d.Category)
	}
	if v, ok := d.Value.(string); d.Value == nil || (ok && strings.TrimSpace(v) == "") {
		return fmt.Errorf("value is required")
	}
	if d.Quality != "" && !slices.Contains(Qualities, d.Quality) {
		return fmt.Errorf("unknown quality %q", d.Quality)
	}
	if d.PrivacyLevel != "" && !slices.Contains(PrivacyLevels, d.PrivacyLevel) {
		return fmt.Errorf("unknown privacy level %q", d.PrivacyLevel)
	}
	if d.Location != nil {
		return d.Location.Validate()
	}
	return nil
}

// ParseValue reads a value typed at a prompt or on the command line: a
// number when it parses as one, otherwise the trimmed text.
func ParseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return raw
}

// DataFilter narrows a data explorer listing. Zero fields are not sent.
type DataFilter struct {
	Category string
	Quality  string
	Start    time.Time
	End      time.Time
	Limit    int
}

// Validate checks the filter before it is sent.
func (f DataFilter) Validate() error {
	if f.Category != "" && !slices.Contains(Categories, f.Category) {
		return fmt.Errorf("unknown category %q", f.Category)
	}
	if f.Quality != "" && !slices.Contains(Qualities, f.Quality) {
		return fmt.Errorf("unknown quality %q", f.Quality)
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	if !f.Start.IsZero() && !f.End.IsZero() && f.End.Before(f.Start) {
		return fmt.Errorf("end date is before start date")
	}
	return nil
}

// Values encodes the filter as query parameters.
func (f DataFilter) Values() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Quality != "" {
		q.Set("quality", f.Quality)
	}
	if !f.Start.IsZero() {
		q.Set("start_date", f.Start.UTC().Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		q.Set("end_date", f.End.UTC().Format(time.RFC3339))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// DashboardStats are the headline numbers of the dashboard.
type DashboardStats struct {
	TotalDataPoints     int     `json:"total_data_points"`
	ActiveSubscriptions int     `json:"active_subscriptions"`
	DataQuality         float64 `json:"data_quality"`
	Trend               float64 `json:"trend"`
}

// Dashboard is the answer of GET /api/dashboard.
type Dashboard struct {
	Stats      DashboardStats `json:"stats"`
	RecentData []DataPoint    `json:"recent_data"`
}

// Overview is everything the dashboard view shows.
type Overview struct {
	Dashboard     Dashboard
	Subscriptions []Subscription
}

// Subscription notifies its owner about new data in a category.
type Subscription struct {
	ID              string         `json:"id"`
	UserID          string         `json:"user_id,omitempty"`
	Category        string         `json:"category"`
	Filters         map[string]any `json:"filters,omitempty"`
	NotificationURL string         `json:"notification_url,omitempty"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       *time.Time     `json:"updated_at,omitempty"`
}

// SubscriptionRequest creates a subscription.
type SubscriptionRequest struct {
	Category        string         `json:"category"`
	Filters         map[string]any `json:"filters,omitempty"`
	NotificationURL string         `json:"notification_url,omitempty"`
}

// Validate checks the request before it is sent.
func (r SubscriptionRequest) Validate() error {
	if r.Category == "" {
		return fmt.Errorf("category is required")
	}
	if !slices.Contains(Categories, r.Category) {
		return fmt.Errorf("unknown category %q", r.Category)
	}
	return validateNotificationURL(r.NotificationURL)
}

// SubscriptionUpdate changes the fields that are set.
type SubscriptionUpdate struct {
	Filters         map[string]any `json:"filters,omitempty"`
	NotificationURL *string        `json:"notification_url,omitempty"`
	IsActive        *bool          `json:"is_active,omitempty"`
}

// Validate checks the update before it is sent.
func (u SubscriptionUpdate) Validate() error {
	if u.Filters == nil && u.NotificationURL == nil && u.IsActive == nil {
		return fmt.Errorf("nothing to update")
	}
	if u.NotificationURL != nil {
		return validateNotificationURL(*u.NotificationURL)
	}
	return nil
}

func validateNotificationURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notification URL must be an absolute http(s) URL")
	}
	return nil
}

// APIKey is a programmatic credential. Key is only populated in the answer
// that created it.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	KeyPrefix  string     `json:"key_prefix"`
	Key        string     `json:"key,omitempty"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// Profile is the account section of the settings page.
type Profile struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Organization string `json:"organization,omitempty"`
}

// NotificationSettings selects which notifications the account receives.
type NotificationSettings struct {
	Email         bool `json:"email"`
	Webhook       bool `json:"webhook"`
	FailureAlerts bool `json:"failure_alerts"`
}

// ProfileUpdate changes the profile fields that are set. The email
// address is not editable.
type ProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	Organization *string `json:"organization,omitempty"`
}

// Validate checks the update before it is sent.
func (u ProfileUpdate) Validate() error {
	if u.Name == nil && u.Organization == nil {
		return fmt.Errorf("nothing to update")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return fmt.Errorf("name must not be empty")
	}
	return nil
}

// Notification kinds, as named in NotificationSettings.
const (
	NotifyEmail         = "email"
	NotifyWebhook       = "webhook"
	NotifyFailureAlerts = "failure_alerts"
)

// NotificationKinds lists every notification kind.
var NotificationKinds = []string{NotifyEmail, NotifyWebhook, NotifyFailureAlerts}

// NotificationUpdate switches the notification kinds that are set.
type NotificationUpdate struct {
	Email         *bool `json:"email,omitempty"`
	Webhook       *bool `json:"webhook,omitempty"`
	FailureAlerts *bool `json:"failure_alerts,omitempty"`
}

// Set switches one notification kind by name.
func (u *NotificationUpdate) Set(kind string, on bool) error {
	switch kind {
	case NotifyEmail:
		u.Email = &on
	case NotifyWebhook:
		u.Webhook = &on
	case NotifyFailureAlerts:
		u.FailureAlerts = &on
	default:
		return fmt.Errorf("unknown notification %q (want one of %s)", kind, strings.Join(NotificationKinds, ", "))
	}
	return nil
}

// Validate checks the update before it is sent.
func (u NotificationUpdate) Validate() error {
	if u.Email == nil && u.Webhook == nil && u.FailureAlerts == nil {
		return fmt.Errorf("nothing to update")
	}
	return nil
}

// Settings is the answer of GET /api/settings.
type Settings struct {
	Profile       Profile              `json:"profile"`
	APIKeys       []APIKey             `json:"api_keys"`
	Notifications NotificationSettings `json:"notifications"`
}
