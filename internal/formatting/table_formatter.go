package formatting

import (
	"fmt"
	"io"
	"strings"

	"datamart/internal/marketplace"
	dmstrings "datamart/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{options: options}
}

// Identity renders the whoami summary.
func (f *TableFormatter) Identity(w io.Writer, id Identity) error {
	doc := newIdentityDocument(id)
	if err := identityTmpl.Execute(w, doc); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Overview renders the dashboard: headline stats, recent data and subscriptions.
func (f *TableFormatter) Overview(w io.Writer, ov *marketplace.Overview) error {
	fmt.Fprintln(w, f.heading("Overview"))
	if err := statsTmpl.Execute(w, ov.Dashboard); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.heading("Recent data"))
	if err := f.Data(w, ov.Dashboard.RecentData); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.heading("Subscriptions"))
	return f.Subscriptions(w, ov.Subscriptions)
}

// Data renders data points as a table.
func (f *TableFormatter) Data(w io.Writer, points []marketplace.DataPoint) error {
	if len(points) == 0 {
		fmt.Fprintln(w, f.empty("No data points found"))
		return nil
	}

	t := f.createTable(w)
	t.AppendHeader(f.header("ID", "CATEGORY", "VALUE", "QUALITY", "CREATED"))
	for _, p := range points {
		t.AppendRow(table.Row{p.ID, p.Category, formatValue(p.Value), f.quality(p.Quality), formatTimestamp(p.CreatedAt)})
	}
	t.Render()
	return nil
}

// DataPoint renders a single data point as key/value pairs.
func (f *TableFormatter) DataPoint(w io.Writer, point *marketplace.DataPoint) error {
	location := "-"
	if point.Location != nil {
		location = fmt.Sprintf("%.5f, %.5f", point.Location.Latitude, point.Location.Longitude)
	}
	privacy := point.PrivacyLevel
	if privacy == "" {
		privacy = "-"
	}

	t := f.createTable(w)
	t.AppendRows([]table.Row{
		{f.key("ID"), point.ID},
		{f.key("Category"), point.Category},
		{f.key("Value"), formatValue(point.Value)},
		{f.key("Quality"), f.quality(point.Quality)},
		{f.key("Privacy"), privacy},
		{f.key("Location"), location},
		{f.key("Created"), formatTimestamp(point.CreatedAt)},
	})
	t.Render()
	return nil
}

// Subscriptions renders subscriptions as a table.
func (f *TableFormatter) Subscriptions(w io.Writer, subs []marketplace.Subscription) error {
	if len(subs) == 0 {
		fmt.Fprintln(w, f.empty("No subscriptions"))
		return nil
	}

	t := f.createTable(w)
	t.AppendHeader(f.header("ID", "CATEGORY", "ACTIVE", "NOTIFY", "CREATED"))
	for _, s := range subs {
		notify := dmstrings.TruncateMiddle(s.NotificationURL, dmstrings.CellMaxLen)
		if notify == "" {
			notify = "-"
		}
		t.AppendRow(table.Row{s.ID, s.Category, yesNo(s.IsActive), notify, formatTimestamp(s.CreatedAt)})
	}
	t.AppendFooter(table.Row{"", "", "", "Total", len(subs)})
	t.Render()
	return nil
}

// Subscription renders a single subscription as key/value pairs.
func (f *TableFormatter) Subscription(w io.Writer, sub *marketplace.Subscription) error {
	t := f.createTable(w)
	t.AppendRows([]table.Row{
		{f.key("ID"), sub.ID},
		{f.key("Category"), sub.Category},
		{f.key("Active"), yesNo(sub.IsActive)},
		{f.key("Notify"), sub.NotificationURL},
		{f.key("Filters"), formatValue(sub.Filters)},
		{f.key("Created"), formatTimestamp(sub.CreatedAt)},
		{f.key("Updated"), formatOptionalTimestamp(sub.UpdatedAt)},
	})
	t.Render()
	return nil
}

// Settings renders the profile and the API keys.
func (f *TableFormatter) Settings(w io.Writer, s *marketplace.Settings) error {
	fmt.Fprintln(w, f.heading("Profile"))
	if err := profileTmpl.Execute(w, s.Profile); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := notificationsTmpl.Execute(w, s.Notifications); err != nil {
		return err
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, f.heading("API keys"))
	if len(s.APIKeys) == 0 {
		fmt.Fprintln(w, f.empty("No API keys"))
		return nil
	}
	t := f.createTable(w)
	t.AppendHeader(f.header("ID", "NAME", "PREFIX", "ACTIVE", "CREATED", "LAST USED"))
	for _, k := range s.APIKeys {
		t.AppendRow(table.Row{k.ID, k.Name, k.KeyPrefix + "…", yesNo(k.IsActive), formatTimestamp(k.CreatedAt), formatOptionalTimestamp(k.LastUsedAt)})
	}
	t.Render()
	return nil
}

// Profile renders the account profile.
func (f *TableFormatter) Profile(w io.Writer, p *marketplace.Profile) error {
	if err := profileTmpl.Execute(w, p); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// Notifications renders the enabled notification kinds.
func (f *TableFormatter) Notifications(w io.Writer, n *marketplace.NotificationSettings) error {
	if err := notificationsTmpl.Execute(w, n); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return nil
}

// APIKey renders a newly created key, the only time its secret is shown.
func (f *TableFormatter) APIKey(w io.Writer, key *marketplace.APIKey) error {
	fmt.Fprintf(w, "Created API key %q (%s)\n\n", key.Name, key.ID)
	if key.Key != "" {
		fmt.Fprintf(w, "  %s\n\n", key.Key)
		fmt.Fprintln(w, f.warn("Copy the key now; it will not be shown again."))
	}
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if !f.options.Color {
		t.Style().Color = table.ColorOptionsDefault
		t.Style().Format.Header = text.FormatDefault
		t.Style().Format.Footer = text.FormatDefault
	}
	return t
}

func (f *TableFormatter) header(cols ...string) table.Row {
	row := make(table.Row, len(cols))
	for i, c := range cols {
		row[i] = f.paint(text.FgHiCyan, c)
	}
	return row
}

func (f *TableFormatter) key(s string) string {
	return f.paint(text.FgHiCyan, s)
}

func (f *TableFormatter) heading(s string) string {
	return f.paint(text.Bold, s)
}

func (f *TableFormatter) empty(s string) string {
	return f.paint(text.FgYellow, s)
}

func (f *TableFormatter) warn(s string) string {
	return f.paint(text.FgYellow, s)
}

func (f *TableFormatter) quality(q string) string {
	switch strings.ToLower(q) {
	case marketplace.QualityHigh:
		return f.paint(text.FgGreen, q)
	case marketplace.QualityLow, marketplace.QualityUnverified:
		return f.paint(text.FgRed, q)
	default:
		return q
	}
}

func (f *TableFormatter) paint(c text.Color, s string) string {
	if !f.options.Color {
		return s
	}
	return c.Sprint(s)
}
