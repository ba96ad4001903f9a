package cmd

import (
	"context"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/shell"

	"github.com/spf13/cobra"
)

func newShellCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "shell",
		Aliases: []string{"repl"},
		Short:   "Start an interactive session",
		Long: `Start an interactive session. The shell opens the dashboard, or the login
page when there is no session, and accepts commands such as 'open /explorer',
'login', 'oauth google' and 'subscribe sensor'. Type 'help' for the full list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			return shell.New(application.Services(), cfg.Out, cfg.ErrOut).Run(ctx)
		},
	}
}
