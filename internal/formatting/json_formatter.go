package formatting

import (
	"encoding/json"
	"io"

	"datamart/internal/marketplace"
)

// JSONFormatter writes indented JSON.
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{options: options}
}

func (f *JSONFormatter) write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (f *JSONFormatter) Identity(w io.Writer, id Identity) error {
	return f.write(w, newIdentityDocument(id))
}

func (f *JSONFormatter) Overview(w io.Writer, ov *marketplace.Overview) error {
	return f.write(w, overviewDocument(ov))
}

func (f *JSONFormatter) Data(w io.Writer, points []marketplace.DataPoint) error {
	return f.write(w, nonNil(points))
}

func (f *JSONFormatter) DataPoint(w io.Writer, point *marketplace.DataPoint) error {
	return f.write(w, point)
}

func (f *JSONFormatter) Subscriptions(w io.Writer, subs []marketplace.Subscription) error {
	return f.write(w, nonNil(subs))
}

func (f *JSONFormatter) Subscription(w io.Writer, sub *marketplace.Subscription) error {
	return f.write(w, sub)
}

func (f *JSONFormatter) Settings(w io.Writer, s *marketplace.Settings) error {
	return f.write(w, s)
}

func (f *JSONFormatter) Profile(w io.Writer, p *marketplace.Profile) error {
	return f.write(w, p)
}

func (f *JSONFormatter) Notifications(w io.Writer, n *marketplace.NotificationSettings) error {
	return f.write(w, n)
}

func (f *JSONFormatter) APIKey(w io.Writer, key *marketplace.APIKey) error {
	return f.write(w, key)
}

// overviewDocument flattens an Overview for json and yaml output.
func overviewDocument(ov *marketplace.Overview) map[string]any {
	return map[string]any{
		"stats":         ov.Dashboard.Stats,
		"recent_data":   nonNil(ov.Dashboard.RecentData),
		"subscriptions": nonNil(ov.Subscriptions),
	}
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
