// Package views implements the screens the router renders: the public
// authentication pages and the protected marketplace pages.
//
// Views never prompt. Interactive input (credentials, confirmations) is
// collected by the shell and the commands, which then call the session
// manager; the views report state and explain what to do next.
package views

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"datamart/internal/formatting"
	"datamart/internal/marketplace"
	"datamart/internal/router"
	"datamart/internal/session"
)

// Session is the part of *session.Manager the views use.
type Session interface {
	Snapshot() session.Snapshot
	VerifyEmail(ctx context.Context, verificationToken string) error
	CompleteOAuth(ctx context.Context, code, state string) error
	CancelOAuth(reason string) error
}

// Marketplace is the part of *marketplace.Client the views use.
type Marketplace interface {
	Overview(ctx context.Context) (*marketplace.Overview, error)
	Data(ctx context.Context, filter marketplace.DataFilter) ([]marketplace.DataPoint, error)
	Subscriptions(ctx context.Context) ([]marketplace.Subscription, error)
	Settings(ctx context.Context) (*marketplace.Settings, error)
}

// Deps are the collaborators every view shares.
type Deps struct {
	Session   Session
	Market    Marketplace
	Formatter formatting.Formatter
	// Providers are the OAuth providers offered on the login view.
	Providers []string
}

// New returns a view for every route of the default table plus the
// not-found view.
func New(d Deps) (map[string]router.View, error) {
	if d.Session == nil {
		return nil, fmt.Errorf("views require a session")
	}
	if d.Market == nil {
		return nil, fmt.Errorf("views require a marketplace client")
	}
	if d.Formatter == nil {
		d.Formatter = formatting.New(formatting.Options{Format: formatting.FormatTable})
	}

	auth := &authViews{session: d.Session, providers: d.Providers}
	market := &marketViews{market: d.Market, format: d.Formatter}

	return map[string]router.View{
		router.ViewLogin:          router.ViewFunc(auth.login),
		router.ViewRegister:       router.ViewFunc(auth.register),
		router.ViewForgotPassword: router.ViewFunc(auth.passwordReset),
		router.ViewResetPassword:  router.ViewFunc(auth.passwordReset),
		router.ViewVerifyEmail:    router.ViewFunc(auth.verifyEmail),
		router.ViewOAuthCallback:  router.ViewFunc(auth.oauthCallback),
		router.ViewDashboard:      router.ViewFunc(market.dashboard),
		router.ViewExplorer:       router.ViewFunc(market.explorer),
		router.ViewSubscriptions:  router.ViewFunc(market.subscriptions),
		router.ViewSettings:       router.ViewFunc(market.settings),
		router.ViewNotFound:       router.ViewFunc(notFound),
	}, nil
}

// Paths lists the navigable paths of the default table, sorted.
func Paths() []string {
	var paths []string
	for _, r := range router.DefaultTable() {
		if r.View == router.ViewOAuthCallback {
			continue
		}
		paths = append(paths, r.Pattern)
	}
	sort.Strings(paths)
	return paths
}

func notFound(_ context.Context, w io.Writer, req router.Request) error {
	fmt.Fprintf(w, "Page not found: %s\n", req.URL.Path)
	fmt.Fprintf(w, "Available pages: %s\n", strings.Join(Paths(), ", "))
	return nil
}
