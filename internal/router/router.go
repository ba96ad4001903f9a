package router

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"datamart/internal/session"
	"datamart/pkg/logging"
)

// maxRedirects bounds redirect chains within one navigation.
const maxRedirects = 5

// Request is what a view receives.
type Request struct {
	URL     *url.URL
	Route   Route
	Session session.Snapshot
}

// Query returns a query parameter of the requested URL.
func (r Request) Query(key string) string {
	return r.URL.Query().Get(key)
}

// View renders one screen.
type View interface {
	Render(ctx context.Context, w io.Writer, req Request) error
}

// ViewFunc adapts a function to View.
type ViewFunc func(ctx context.Context, w io.Writer, req Request) error

// Render implements View.
func (f ViewFunc) Render(ctx context.Context, w io.Writer, req Request) error {
	return f(ctx, w, req)
}

// Session is the part of *session.Manager the router reads.
type Session interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (cancel func())
}

// Config configures a Router.
type Config struct {
	Session Session
	Views   map[string]View

	// Table defaults to DefaultTable.
	Table Table
	// Out receives rendered views. Defaults to io.Discard.
	Out io.Writer
	// LoginPath is the redirect destination for protected routes. Defaults to "/login".
	LoginPath string
	// HomePath is where a login without a redirect parameter returns. Defaults to "/".
	HomePath string
	// Indicator is shown while waiting for the session. Optional.
	Indicator Indicator
}

// Router evaluates navigation events against the route table and renders
// the resulting view.
type Router struct {
	table     Table
	guard     *Guard
	session   Session
	views     map[string]View
	out       io.Writer
	loginPath string
	homePath  string
	indicator Indicator

	mu       sync.Mutex
	location *url.URL
}

// New creates a Router.
func New(cfg Config) (*Router, error) {
	if cfg.Session == nil {
		return nil, errors.New("router requires a session")
	}
	if cfg.Table == nil {
		cfg.Table = DefaultTable()
	}
	if err := cfg.Table.Validate(); err != nil {
		return nil, err
	}
	for _, route := range cfg.Table {
		if _, ok := cfg.Views[route.View]; !ok {
			return nil, fmt.Errorf("route %q: view %q is not registered", route.Pattern, route.View)
		}
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.HomePath == "" {
		cfg.HomePath = "/"
	}
	if cfg.Indicator == nil {
		cfg.Indicator = nopIndicator{}
	}

	return &Router{
		table:     cfg.Table,
		guard:     NewGuard(cfg.Table, cfg.LoginPath),
		session:   cfg.Session,
		views:     cfg.Views,
		out:       cfg.Out,
		loginPath: cfg.LoginPath,
		homePath:  cfg.HomePath,
		indicator: cfg.Indicator,
	}, nil
}

// Navigate handles one navigation event. While the session is unresolved it
// waits, showing the indicator, until the session resolves or ctx is done.
func (r *Router) Navigate(ctx context.Context, target string) error {
	u, err := parseTarget(target)
	if err != nil {
		return err
	}

	var visit Visit
	for hops := 0; ; {
		changed, unsubscribe := r.watch()
		snap := r.session.Snapshot()
		d := r.guard.Evaluate(u, snap, &visit)

		switch d.Action {
		case Render:
			unsubscribe()
			return r.render(ctx, u, d.Route, snap)

		case NotFound:
			unsubscribe()
			return r.render(ctx, u, Route{Pattern: u.Path, View: ViewNotFound, Access: Public}, snap)

		case Redirect:
			unsubscribe()
			if hops++; hops > maxRedirects {
				return fmt.Errorf("too many redirects navigating to %s", target)
			}
			logging.Debug("Router", "Redirecting %s -> %s", u.RequestURI(), d.Target)
			if u, err = parseTarget(d.Target); err != nil {
				return err
			}

		case Wait:
			if snap.Status.Resolved() {
				// The redirect target is itself protected.
				unsubscribe()
				return fmt.Errorf("redirect loop navigating to %s: %s is not a public route", target, u.Path)
			}
			err := r.wait(ctx, changed)
			unsubscribe()
			if err != nil {
				return err
			}
		}
	}
}

// ReturnAfterLogin leaves the login view for the path carried in its
// redirect parameter, or for the home path.
func (r *Router) ReturnAfterLogin(ctx context.Context) error {
	dest := r.homePath
	if loc := r.Location(); loc != nil {
		if route, ok := r.table.Match(loc.Path); ok && route.View == ViewLogin {
			dest = SafeRedirect(loc.Query().Get("redirect"), r.homePath)
		}
	}
	return r.Navigate(ctx, dest)
}

// Location returns the last rendered location, or nil before the first render.
func (r *Router) Location() *url.URL {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.location == nil {
		return nil
	}
	u := *r.location
	return &u
}

// Navigator adapts the router for session.Manager, which navigates to the
// login view on logout and home after an OAuth login.
func (r *Router) Navigator(ctx context.Context) session.Navigator {
	return session.NavigatorFunc(func(target string) error {
		return r.Navigate(ctx, target)
	})
}

func (r *Router) render(ctx context.Context, u *url.URL, route Route, snap session.Snapshot) error {
	view, ok := r.views[route.View]
	if !ok {
		view = ViewFunc(notFound)
	}

	r.mu.Lock()
	r.location = u
	r.mu.Unlock()

	return view.Render(ctx, r.out, Request{URL: u, Route: route, Session: snap})
}

// watch returns a channel signalled on the next session change.
func (r *Router) watch() (<-chan struct{}, func()) {
	changed := make(chan struct{}, 1)
	cancel := r.session.Subscribe(func(session.Snapshot) {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	return changed, cancel
}

func (r *Router) wait(ctx context.Context, changed <-chan struct{}) error {
	r.indicator.Start("Checking session...")
	defer r.indicator.Stop()

	select {
	case <-changed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseTarget(target string) (*url.URL, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		target = "/"
	}
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid location %q: %w", target, err)
	}
	if u.IsAbs() || u.Host != "" {
		return nil, fmt.Errorf("invalid location %q: not an in-app path", target)
	}
	return u, nil
}

func notFound(_ context.Context, w io.Writer, req Request) error {
	_, err := fmt.Fprintf(w, "Page not found: %s\n", req.URL.Path)
	return err
}
