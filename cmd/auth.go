package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/formatting"
	"datamart/internal/session"

	"github.com/spf13/cobra"
)

// newAuthCmd creates the auth command group.
func newAuthCmd(flags *cli.CommandFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your datamart session",
		Long: `Manage your datamart session.

The auth command group logs you in with email and password or through an
identity provider, shows who is logged in, creates accounts, verifies email
addresses and logs you out.

Examples:
  datamart auth login ada@example.com          # Log in with a password
  datamart auth login --provider google        # Log in with Google
  datamart auth status                         # Show the current session
  datamart auth register ada@example.com       # Create an account
  datamart auth verify <token>                 # Verify your email
  datamart auth logout                         # Log out`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(flags),
		newAuthLogoutCmd(flags),
		newAuthStatusCmd(flags),
		newAuthRegisterCmd(flags),
		newAuthVerifyCmd(flags),
	)
	return cmd
}

// prompterFor reads answers from stdin when fromStdin is set, and from the
// terminal otherwise. The returned function releases the terminal.
func prompterFor(cmd *cobra.Command, fromStdin bool) (cli.Prompter, func() error, error) {
	if fromStdin {
		return cli.NewReaderPrompter(cmd.InOrStdin()), func() error { return nil }, nil
	}
	return cli.NewTerminalPrompter()
}

func newAuthLoginCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		provider      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in to the marketplace",
		Long: `Log in with email and password, or with an identity provider.

With --provider, a browser window opens on the provider's sign-in page and
datamart waits for the redirect on the local callback port. After a
successful provider login the dashboard is shown.

Examples:
  datamart auth login ada@example.com
  echo "$PASSWORD" | datamart auth login ada@example.com --password-stdin
  datamart auth login --provider github`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				if provider != "" {
					if len(args) > 0 {
						return &cli.InvalidInputError{Reason: fmt.Errorf("an email cannot be combined with --provider")}
					}
					return s.OAuthLogin(ctx, provider, func(authURL string) {
						printf(cmd, "Continue in your browser. If it did not open, visit:\n  %s\n", authURL)
					})
				}
				return passwordLogin(ctx, cmd, s, args, passwordStdin)
			})
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Log in through an identity provider (google, github)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func passwordLogin(ctx context.Context, cmd *cobra.Command, s *app.Services, args []string, passwordStdin bool) error {
	prompter, done, err := prompterFor(cmd, passwordStdin)
	if err != nil {
		return err
	}
	defer done()

	var email string
	if len(args) > 0 {
		email = args[0]
	} else if email, err = prompter.Line("Email: "); err != nil {
		return err
	}
	password, err := prompter.Password("Password: ")
	if err != nil {
		return err
	}

	if err := s.Session.Login(ctx, email, password); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Logged in as "+s.Session.User().DisplayName()))
	return nil
}

func newAuthLogoutCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				if s.Session.Restore(ctx).Status != session.StatusAuthenticated {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Not logged in"))
					return nil
				}
				return s.Session.Logout(ctx)
			})
		},
	}
}

func newAuthStatusCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"whoami"},
		Short:   "Show the current session",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				return s.Formatter.Identity(cmd.OutOrStdout(), formatting.Identity{
					Server:   s.Config.API.URL,
					Snapshot: s.Session.Restore(ctx),
				})
			})
		},
	}
}

func newAuthRegisterCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		fullName      string
		passwordStdin bool
	)

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account",
		Long: `Create an account. You are asked for the password twice.

Depending on the server, the new account is logged in right away or a
verification link is sent by email. Finish with 'datamart auth verify'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				prompter, done, err := prompterFor(cmd, passwordStdin)
				if err != nil {
					return err
				}
				defer done()

				req := session.RegisterRequest{Email: args[0], FullName: fullName}
				if req.Password, err = prompter.Password("Password: "); err != nil {
					return err
				}
				if req.ConfirmPassword, err = prompter.Password("Confirm password: "); err != nil {
					return err
				}

				if err := s.Session.Register(ctx, req); err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if s.Session.Status() == session.StatusAuthenticated {
					fmt.Fprintln(out, cli.FormatSuccess("Account created. Logged in as "+s.Session.User().DisplayName()))
					return nil
				}
				fmt.Fprintln(out, cli.FormatSuccess("Account created."))
				fmt.Fprintln(out, "Check your inbox for the verification link, then run 'datamart auth verify <token>'.")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&fullName, "name", "", "Your full name")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password and its confirmation from stdin")
	return cmd
}

func newAuthVerifyCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token|link>",
		Short: "Verify your email address",
		Long: `Verify your email address with the token from the verification email.
The whole link is accepted as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				return application.Open(ctx, "/verify-email?token="+url.QueryEscape(verificationToken(args[0])))
			})
		},
	}
}

// verificationToken extracts the token from a verification link, or returns
// arg unchanged.
func verificationToken(arg string) string {
	if !strings.Contains(arg, "://") {
		return arg
	}
	u, err := url.Parse(arg)
	if err != nil {
		return arg
	}
	if token := u.Query().Get("token"); token != "" {
		return token
	}
	return arg
}
