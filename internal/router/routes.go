package router

import (
	"fmt"
	"path"
)

// Access says whether a route needs an authenticated session.
type Access int

const (
	// Public routes render regardless of the session.
	Public Access = iota
	// Protected routes render only for an authenticated session.
	Protected
)

// String returns the string representation of the access level.
func (a Access) String() string {
	if a == Protected {
		return "protected"
	}
	return "public"
}

// View names used by the default route table.
const (
	ViewLogin          = "login"
	ViewRegister       = "register"
	ViewForgotPassword = "forgot-password"
	ViewResetPassword  = "reset-password"
	ViewVerifyEmail    = "verify-email"
	ViewOAuthCallback  = "oauth-callback"
	ViewDashboard      = "dashboard"
	ViewExplorer       = "explorer"
	ViewSubscriptions  = "subscriptions"
	ViewSettings       = "settings"
	ViewNotFound       = "not-found"
)

// Route binds a path pattern to a view.
type Route struct {
	// Pattern uses path.Match syntax.
	Pattern string
	View    string
	Access  Access
}

// Table is an ordered route list; the first matching route wins.
type Table []Route

// DefaultTable returns the application's routes.
func DefaultTable() Table {
	return Table{
		{Pattern: "/login", View: ViewLogin, Access: Public},
		{Pattern: "/register", View: ViewRegister, Access: Public},
		{Pattern: "/forgot-password", View: ViewForgotPassword, Access: Public},
		{Pattern: "/reset-password", View: ViewResetPassword, Access: Public},
		{Pattern: "/verify-email", View: ViewVerifyEmail, Access: Public},
		{Pattern: "/auth/oauth/callback", View: ViewOAuthCallback, Access: Public},
		{Pattern: "/", View: ViewDashboard, Access: Protected},
		{Pattern: "/explorer", View: ViewExplorer, Access: Protected},
		{Pattern: "/subscriptions", View: ViewSubscriptions, Access: Protected},
		{Pattern: "/settings", View: ViewSettings, Access: Protected},
	}
}

// Validate checks every pattern is well-formed.
func (t Table) Validate() error {
	for _, r := range t {
		if _, err := path.Match(r.Pattern, "/"); err != nil {
			return fmt.Errorf("route %q: %w", r.Pattern, err)
		}
		if r.View == "" {
			return fmt.Errorf("route %q: no view", r.Pattern)
		}
	}
	return nil
}

// Match returns the first route whose pattern matches p.
func (t Table) Match(p string) (Route, bool) {
	for _, r := range t {
		if ok, _ := path.Match(r.Pattern, p); ok {
			return r, true
		}
	}
	return Route{}, false
}
