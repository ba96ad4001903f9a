package formatting

import (
	"encoding/json"
	"fmt"
	"io"

	"datamart/internal/marketplace"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes YAML converted from the JSON form, so field names match
// the backend's snake_case in both formats.
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{options: options}
}

func (f *YAMLFormatter) write(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	var generic any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to convert output to YAML: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

func (f *YAMLFormatter) Identity(w io.Writer, id Identity) error {
	return f.write(w, newIdentityDocument(id))
}

func (f *YAMLFormatter) Overview(w io.Writer, ov *marketplace.Overview) error {
	return f.write(w, overviewDocument(ov))
}

func (f *YAMLFormatter) Data(w io.Writer, points []marketplace.DataPoint) error {
	return f.write(w, nonNil(points))
}

func (f *YAMLFormatter) DataPoint(w io.Writer, point *marketplace.DataPoint) error {
	return f.write(w, point)
}

func (f *YAMLFormatter) Subscriptions(w io.Writer, subs []marketplace.Subscription) error {
	return f.write(w, nonNil(subs))
}

func (f *YAMLFormatter) Subscription(w io.Writer, sub *marketplace.Subscription) error {
	return f.write(w, sub)
}

func (f *YAMLFormatter) Settings(w io.Writer, s *marketplace.Settings) error {
	return f.write(w, s)
}

func (f *YAMLFormatter) Profile(w io.Writer, p *marketplace.Profile) error {
	return f.write(w, p)
}

func (f *YAMLFormatter) Notifications(w io.Writer, n *marketplace.NotificationSettings) error {
	return f.write(w, n)
}

func (f *YAMLFormatter) APIKey(w io.Writer, key *marketplace.APIKey) error {
	return f.write(w, key)
}
