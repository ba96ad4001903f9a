package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/session"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, backend unreachable).
	ExitCodeError = 1
	// ExitCodeAuthRequired indicates a session is required but not available.
	ExitCodeAuthRequired = 2
	// ExitCodeAuthFailed indicates the backend rejected credentials or a callback.
	ExitCodeAuthFailed = 3
	// ExitCodeInvalidInput indicates input was rejected before any request.
	ExitCodeInvalidInput = 4
)

// rootFlags holds the persistent flags of rootCmd.
var rootFlags cli.CommandFlags

// rootCmd represents the base command for the datamart application.
var rootCmd = newRootCmd(&rootFlags)

// newRootCmd builds the command tree around flags.
func newRootCmd(flags *cli.CommandFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datamart",
		Short: "Browse and subscribe to marketplace data from the terminal",
		Long: `datamart is the command-line client for the data marketplace.

Log in with email and password or through Google or GitHub, then browse
the dashboard, explore data points, manage subscriptions and API keys.
Run 'datamart shell' for an interactive session.`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
	}
	cli.RegisterCommonFlags(cmd, flags)

	cmd.AddCommand(
		newVersionCmd(),
		newAuthCmd(flags),
		newOpenCmd(flags),
		newDashboardCmd(flags),
		newExplorerCmd(flags),
		newSubscriptionsCmd(flags),
		newSettingsCmd(flags),
		newAPIKeysCmd(flags),
		newShellCmd(flags),
	)
	return cmd
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// It is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "datamart version %s\n" .Version}}`)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var authRequired *cli.AuthRequiredError
	if errors.As(err, &authRequired) {
		return ExitCodeAuthRequired
	}

	var authFailed *cli.AuthFailedError
	if errors.As(err, &authFailed) {
		return ExitCodeAuthFailed
	}

	var invalidInput *cli.InvalidInputError
	if errors.As(err, &invalidInput) {
		return ExitCodeInvalidInput
	}

	return ExitCodeError
}

// runWithApp bootstraps the application for cmd and runs fn. Session and
// marketplace errors are translated into CLI errors for the exit code.
func runWithApp(cmd *cobra.Command, flags *cli.CommandFlags, fn func(ctx context.Context, application *app.Application) error) error {
	cfg, err := flags.ToAppConfig()
	if err != nil {
		return err
	}
	cfg.Out = cmd.OutOrStdout()
	cfg.ErrOut = cmd.ErrOrStderr()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		return err
	}
	return cli.Translate(fn(ctx, application), application.Services().Config.API.URL)
}

// openProtected shows a page that needs a session. Without one the command
// fails with AuthRequiredError instead of rendering the login page.
func openProtected(ctx context.Context, application *app.Application, target string) error {
	s := application.Services()
	snap := s.Session.Restore(ctx)
	if s.Session.Status() != session.StatusAuthenticated {
		return &cli.AuthRequiredError{Endpoint: s.Config.API.URL, Reason: snap.Err}
	}
	return s.Router.Navigate(ctx, target)
}

// printf writes a notice to the command's error stream.
func printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.ErrOrStderr(), format, args...)
}
