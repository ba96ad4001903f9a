package shell

import (
	"context"
	"net/url"

	"datamart/internal/cli"
	"datamart/internal/formatting"
	"datamart/internal/session"
)

// LoginCommand logs in with email and password
type LoginCommand struct {
	*BaseCommand
}

// NewLoginCommand creates a new login command
func NewLoginCommand(env *Env) *LoginCommand {
	return &LoginCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute logs in and returns to the page that asked for it
func (l *LoginCommand) Execute(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = l.prompt("Email", false); err != nil {
			return err
		}
	}
	password, err := l.prompt("Password", true)
	if err != nil {
		return err
	}

	s := l.env.Services
	if err := s.Session.Login(ctx, email, password); err != nil {
		return err
	}
	l.println(cli.FormatSuccess("Logged in as " + s.Session.User().DisplayName()))
	return s.Router.ReturnAfterLogin(ctx)
}

// Usage returns the usage string
func (l *LoginCommand) Usage() string {
	return "login [email]"
}

// Description returns the command description
func (l *LoginCommand) Description() string {
	return "Log in with email and password"
}

// RegisterCommand creates an account
type RegisterCommand struct {
	*BaseCommand
}

// NewRegisterCommand creates a new register command
func NewRegisterCommand(env *Env) *RegisterCommand {
	return &RegisterCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute prompts for the account details and registers
func (r *RegisterCommand) Execute(ctx context.Context, args []string) error {
	req := session.RegisterRequest{}
	if len(args) > 0 {
		req.Email = args[0]
	}

	var err error
	if req.Email == "" {
		if req.Email, err = r.prompt("Email", false); err != nil {
			return err
		}
	}
	if req.FullName, err = r.prompt("Full name", false); err != nil {
		return err
	}
	if req.Password, err = r.prompt("Password", true); err != nil {
		return err
	}
	if req.ConfirmPassword, err = r.prompt("Confirm password", true); err != nil {
		return err
	}

	s := r.env.Services
	if err := s.Session.Register(ctx, req); err != nil {
		return err
	}
	if s.Session.Status() == session.StatusAuthenticated {
		r.println(cli.FormatSuccess("Account created. Logged in as " + s.Session.User().DisplayName()))
		return s.Router.ReturnAfterLogin(ctx)
	}
	r.println(cli.FormatSuccess("Account created."))
	r.println("Check your inbox for the verification link, then run 'verify <token>'.")
	return nil
}

// Usage returns the usage string
func (r *RegisterCommand) Usage() string {
	return "register [email]"
}

// Description returns the command description
func (r *RegisterCommand) Description() string {
	return "Create an account"
}

// Aliases returns command aliases
func (r *RegisterCommand) Aliases() []string {
	return []string{"signup"}
}

// VerifyCommand confirms an email address
type VerifyCommand struct {
	*BaseCommand
}

// NewVerifyCommand creates a new verify command
func NewVerifyCommand(env *Env) *VerifyCommand {
	return &VerifyCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute opens the verification page for token
func (v *VerifyCommand) Execute(ctx context.Context, args []string) error {
	args, err := v.parseArgs(args, 1, v.Usage())
	if err != nil {
		return err
	}
	return v.env.Services.Router.Navigate(ctx, "/verify-email?token="+url.QueryEscape(args[0]))
}

// Usage returns the usage string
func (v *VerifyCommand) Usage() string {
	return "verify <token>"
}

// Description returns the command description
func (v *VerifyCommand) Description() string {
	return "Verify your email with the token from the verification link"
}

// Aliases returns command aliases
func (v *VerifyCommand) Aliases() []string {
	return []string{"verify-email"}
}

// OAuthCommand logs in through an identity provider
type OAuthCommand struct {
	*BaseCommand
}

// NewOAuthCommand creates a new oauth command
func NewOAuthCommand(env *Env) *OAuthCommand {
	return &OAuthCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute runs the provider flow and waits for the browser to come back
func (o *OAuthCommand) Execute(ctx context.Context, args []string) error {
	args, err := o.parseArgs(args, 1, o.Usage())
	if err != nil {
		return err
	}
	return o.env.Services.OAuthLogin(ctx, args[0], func(authURL string) {
		o.println("Continue in your browser. If it did not open, visit:")
		o.println("  %s", authURL)
		o.println("Waiting for the sign-in to complete...")
	})
}

// Usage returns the usage string
func (o *OAuthCommand) Usage() string {
	return "oauth <provider>"
}

// Description returns the command description
func (o *OAuthCommand) Description() string {
	return "Log in with Google or GitHub"
}

// Completions returns the configured providers
func (o *OAuthCommand) Completions(string) []string {
	return o.env.Services.Providers.Names()
}

// LogoutCommand ends the session
type LogoutCommand struct {
	*BaseCommand
}

// NewLogoutCommand creates a new logout command
func NewLogoutCommand(env *Env) *LogoutCommand {
	return &LogoutCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute logs out; the session then opens the login page
func (l *LogoutCommand) Execute(ctx context.Context, _ []string) error {
	return l.env.Services.Session.Logout(ctx)
}

// Usage returns the usage string
func (l *LogoutCommand) Usage() string {
	return "logout"
}

// Description returns the command description
func (l *LogoutCommand) Description() string {
	return "Log out and forget the stored token"
}

// WhoamiCommand shows the current session
type WhoamiCommand struct {
	*BaseCommand
}

// NewWhoamiCommand creates a new whoami command
func NewWhoamiCommand(env *Env) *WhoamiCommand {
	return &WhoamiCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute prints the session identity
func (w *WhoamiCommand) Execute(context.Context, []string) error {
	s := w.env.Services
	return s.Formatter.Identity(w.env.Out, formatting.Identity{
		Server:   s.Config.API.URL,
		Snapshot: s.Session.Snapshot(),
	})
}

// Usage returns the usage string
func (w *WhoamiCommand) Usage() string {
	return "whoami"
}

// Description returns the command description
func (w *WhoamiCommand) Description() string {
	return "Show who is logged in"
}

// Aliases returns command aliases
func (w *WhoamiCommand) Aliases() []string {
	return []string{"status"}
}
