package views

import (
	"context"
	"errors"
	"fmt"
	"io"

	"datamart/internal/router"
	"datamart/internal/session"
)

type authViews struct {
	session   Session
	providers []string
}

func (v *authViews) login(_ context.Context, w io.Writer, req router.Request) error {
	snap := req.Session
	if snap.Status == session.StatusAuthenticated && snap.User != nil {
		fmt.Fprintf(w, "Already logged in as %s.\n", snap.User.DisplayName())
		return nil
	}

	fmt.Fprintln(w, "Log in to DataMart")
	if dest := router.SafeRedirect(req.Query("redirect"), ""); dest != "" {
		fmt.Fprintf(w, "Log in to continue to %s.\n", dest)
	}
	if snap.Err != nil {
		fmt.Fprintf(w, "Error: %s\n", Message(snap.Err))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "  login <email>       log in with email and password")
	for _, p := range v.providers {
		fmt.Fprintf(w, "  oauth %-13s log in with %s\n", p, p)
	}
	fmt.Fprintln(w, "  register            create an account")
	return nil
}

func (v *authViews) register(_ context.Context, w io.Writer, req router.Request) error {
	if req.Session.Status == session.StatusAuthenticated && req.Session.User != nil {
		fmt.Fprintf(w, "Already logged in as %s.\n", req.Session.User.DisplayName())
		return nil
	}
	fmt.Fprintln(w, "Create a DataMart account")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  register <email>    you will be asked for your name and a password")
	fmt.Fprintln(w, "  login <email>       if you already have an account")
	return nil
}

func (v *authViews) passwordReset(_ context.Context, w io.Writer, _ router.Request) error {
	fmt.Fprintln(w, "Password reset is not available from the command line.")
	fmt.Fprintln(w, "Open the link from your reset email in a browser, then log in again.")
	return nil
}

func (v *authViews) verifyEmail(ctx context.Context, w io.Writer, req router.Request) error {
	fmt.Fprintln(w, "Verifying your email...")
	if err := v.session.VerifyEmail(ctx, req.Query("token")); err != nil {
		fmt.Fprintf(w, "Verification failed: %s\n", Message(err))
		fmt.Fprintln(w, "Return to /login")
		return err
	}
	fmt.Fprintln(w, "Email verified.")
	fmt.Fprintln(w, "Continue to /login")
	return nil
}

// oauthCallback completes a flow started by BeginOAuth. On success the
// session manager navigates to the dashboard.
func (v *authViews) oauthCallback(ctx context.Context, w io.Writer, req router.Request) error {
	if reason := req.Query("error"); reason != "" {
		if desc := req.Query("error_description"); desc != "" {
			reason += ": " + desc
		}
		err := v.session.CancelOAuth(reason)
		fmt.Fprintf(w, "Sign-in failed: %s\n", Message(err))
		return err
	}

	fmt.Fprintln(w, "Completing sign-in...")
	if err := v.session.CompleteOAuth(ctx, req.Query("code"), req.Query("state")); err != nil {
		fmt.Fprintf(w, "Authentication failed: %s\n", Message(err))
		fmt.Fprintln(w, "Return to /login")
		return err
	}
	return nil
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var serr *session.Error
	if errors.As(err, &serr) && serr.Message != "" {
		return serr.Message
	}
	return err.Error()
}
