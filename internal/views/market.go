package views

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"datamart/internal/formatting"
	"datamart/internal/marketplace"
	"datamart/internal/router"
	"datamart/internal/session"
)

type marketViews struct {
	market Marketplace
	format formatting.Formatter
}

func (v *marketViews) dashboard(ctx context.Context, w io.Writer, _ router.Request) error {
	ov, err := v.market.Overview(ctx)
	if err != nil {
		return err
	}
	return v.format.Overview(w, ov)
}

// explorer lists data points. Filters come from the query string:
// /explorer?category=sensor&quality=high&start=2026-01-01&limit=20
func (v *marketViews) explorer(ctx context.Context, w io.Writer, req router.Request) error {
	filter, err := ParseDataFilter(req.URL.Query())
	if err != nil {
		return &session.Error{Op: "explorer", Kind: session.ErrValidationFailure, Message: err.Error()}
	}

	points, err := v.market.Data(ctx, filter)
	if err != nil {
		return err
	}
	return v.format.Data(w, points)
}

func (v *marketViews) subscriptions(ctx context.Context, w io.Writer, _ router.Request) error {
	subs, err := v.market.Subscriptions(ctx)
	if err != nil {
		return err
	}
	return v.format.Subscriptions(w, subs)
}

func (v *marketViews) settings(ctx context.Context, w io.Writer, _ router.Request) error {
	s, err := v.market.Settings(ctx)
	if err != nil {
		return err
	}
	return v.format.Settings(w, s)
}

// ParseDataFilter reads explorer filters from query parameters. Dates are
// RFC 3339 timestamps or plain YYYY-MM-DD days; an end day includes the
// whole day.
func ParseDataFilter(q interface{ Get(string) string }) (marketplace.DataFilter, error) {
	f := marketplace.DataFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Quality:  strings.TrimSpace(q.Get("quality")),
	}

	var err error
	if f.Start, err = parseDate(q.Get("start"), false); err != nil {
		return f, fmt.Errorf("start: %w", err)
	}
	if f.End, err = parseDate(q.Get("end"), true); err != nil {
		return f, fmt.Errorf("end: %w", err)
	}
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		if f.Limit, err = strconv.Atoi(raw); err != nil {
			return f, fmt.Errorf("limit must be a number, got %q", raw)
		}
	}
	return f, nil
}

func parseDate(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	day, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or an RFC 3339 timestamp, got %q", raw)
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Second), nil
	}
	return day, nil
}
