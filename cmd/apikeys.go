package cmd

import (
	"context"
	"fmt"

	"datamart/internal/app"
	"datamart/internal/cli"

	"github.com/spf13/cobra"
)

func newAPIKeysCmd(flags *cli.CommandFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "api-keys",
		Aliases: []string{"apikeys", "api-key"},
		Short:   "Create and revoke API keys",
		Long: `Create and revoke API keys for programmatic access. Existing keys are
listed by 'datamart settings'.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create <name>",
			Short: "Create an API key; the secret is shown once",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
					s := application.Services()
					s.Session.Restore(ctx)

					key, err := s.Market.CreateAPIKey(ctx, args[0])
					if err != nil {
						return err
					}
					return s.Formatter.APIKey(cmd.OutOrStdout(), key)
				})
			},
		},
		&cobra.Command{
			Use:   "revoke <id>",
			Short: "Revoke an API key",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
					s := application.Services()
					s.Session.Restore(ctx)

					if err := s.Market.RevokeAPIKey(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Revoked API key "+args[0]))
					return nil
				})
			},
		},
	)
	return cmd
}
