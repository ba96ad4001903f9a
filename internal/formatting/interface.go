// Package formatting renders session and marketplace data for the terminal.
//
// The table format uses go-pretty tables for lists and sprig-enabled text
// templates for the identity, dashboard and settings summaries. The json and
// yaml formats emit the data as-is for scripting.
package formatting

import (
	"fmt"
	"io"

	"datamart/internal/marketplace"
	"datamart/internal/session"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ValidFormats lists the accepted --output values.
var ValidFormats = []OutputFormat{FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates an --output value. Empty means table.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// Identity is what the whoami view shows.
type Identity struct {
	Server   string
	Snapshot session.Snapshot
}

// Formatter renders one kind of output per method.
type Formatter interface {
	Identity(w io.Writer, id Identity) error
	Overview(w io.Writer, ov *marketplace.Overview) error
	Data(w io.Writer, points []marketplace.DataPoint) error
	DataPoint(w io.Writer, point *marketplace.DataPoint) error
	Subscriptions(w io.Writer, subs []marketplace.Subscription) error
	Subscription(w io.Writer, sub *marketplace.Subscription) error
	Settings(w io.Writer, s *marketplace.Settings) error
	Profile(w io.Writer, p *marketplace.Profile) error
	Notifications(w io.Writer, n *marketplace.NotificationSettings) error
	APIKey(w io.Writer, key *marketplace.APIKey) error
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	default:
		return NewTableFormatter(options)
	}
}
