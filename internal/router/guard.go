package router

import (
	"net/url"
	"strings"

	"datamart/internal/session"
)

// Action is what a navigation should do.
type Action int

const (
	// Wait shows the waiting indicator and does not navigate.
	Wait Action = iota
	// Redirect navigates to Decision.Target instead.
	Redirect
	// Render shows the route's view.
	Render
	// NotFound shows the not-found view.
	NotFound
)

// String returns the string representation of the action.
func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	case Render:
		return "render"
	case NotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one guard evaluation.
type Decision struct {
	Action Action
	Route  Route
	// Target is the redirect destination when Action is Redirect.
	Target string
}

// Guard decides whether a route may render for a session snapshot.
// Unauthenticated access to a protected route redirects to the login path
// once per navigation event and resolution generation; later evaluations
// within the same Visit wait instead, so a redirect cannot loop.
type Guard struct {
	table     Table
	loginPath string
}

// Visit is the guard state of one navigation event. Each call to
// Router.Navigate starts a new Visit.
type Visit struct {
	redirected     bool
	redirectedFrom uint64
}

// NewGuard creates a guard over table. Redirects go to loginPath.
func NewGuard(table Table, loginPath string) *Guard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Guard{table: table, loginPath: loginPath}
}

// Evaluate decides what navigating to target does given snap. A nil visit
// is a fresh navigation event.
func (g *Guard) Evaluate(target *url.URL, snap session.Snapshot, visit *Visit) Decision {
	if visit == nil {
		visit = &Visit{}
	}

	route, ok := g.table.Match(target.Path)
	if !ok {
		return Decision{Action: NotFound}
	}
	if route.Access == Public {
		return Decision{Action: Render, Route: route}
	}

	switch snap.Status {
	case session.StatusAuthenticated:
		return Decision{Action: Render, Route: route}
	case session.StatusUnauthenticated:
		if visit.redirected && visit.redirectedFrom == snap.Generation {
			return Decision{Action: Wait, Route: route}
		}
		visit.redirected = true
		visit.redirectedFrom = snap.Generation
		return Decision{Action: Redirect, Route: route, Target: LoginURL(g.loginPath, target)}
	default:
		return Decision{Action: Wait, Route: route}
	}
}

// LoginURL builds the login location that returns to target afterwards.
func LoginURL(loginPath string, target *url.URL) string {
	q := url.Values{}
	q.Set("redirect", target.RequestURI())
	return loginPath + "?" + q.Encode()
}

// SafeRedirect returns the in-app path carried in a login URL's redirect
// parameter, or fallback when it is missing or points off-site.
func SafeRedirect(raw, fallback string) string {
	if raw == "" || raw[0] != '/' || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	if u, err := url.Parse(raw); err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
