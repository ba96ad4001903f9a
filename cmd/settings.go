package cmd

import (
	"context"
	"fmt"
	"strings"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/marketplace"

	"github.com/spf13/cobra"
)

// newSettingsCmd creates the settings command group. Without a subcommand
// it shows the settings page.
func newSettingsCmd(flags *cli.CommandFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change your profile and notifications",
		Long: `Show your profile, notification preferences and API keys, or change them.

Examples:
  datamart settings
  datamart settings profile --name "Ada King" --organization "Analytical Engines"
  datamart settings notifications --webhook=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				return openProtected(ctx, application, "/settings")
			})
		},
	}

	cmd.AddCommand(
		newSettingsProfileCmd(flags),
		newSettingsNotificationsCmd(flags),
	)
	return cmd
}

func newSettingsProfileCmd(flags *cli.CommandFlags) *cobra.Command {
	var name, organization string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Change your display name or organization",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update marketplace.ProfileUpdate
			if cmd.Flags().Changed("name") {
				update.Name = &name
			}
			if cmd.Flags().Changed("organization") {
				update.Organization = &organization
			}

			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				p, err := s.Market.UpdateProfile(ctx, update)
				if err != nil {
					return err
				}
				return s.Formatter.Profile(cmd.OutOrStdout(), p)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&organization, "organization", "", "Organization (empty to remove)")
	return cmd
}

func newSettingsNotificationsCmd(flags *cli.CommandFlags) *cobra.Command {
	values := make(map[string]*bool, len(marketplace.NotificationKinds))

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notify"},
		Short:   "Switch notification kinds on or off",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update marketplace.NotificationUpdate
			for _, kind := range marketplace.NotificationKinds {
				if cmd.Flags().Changed(flagName(kind)) {
					if err := update.Set(kind, *values[kind]); err != nil {
						return &cli.InvalidInputError{Reason: err}
					}
				}
			}

			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				n, err := s.Market.UpdateNotifications(ctx, update)
				if err != nil {
					return err
				}
				return s.Formatter.Notifications(cmd.OutOrStdout(), n)
			})
		},
	}

	for _, kind := range marketplace.NotificationKinds {
		values[kind] = cmd.Flags().Bool(flagName(kind), true, fmt.Sprintf("Receive %s notifications", displayName(kind)))
	}
	return cmd
}

// flagName turns a notification kind into its flag, e.g. failure-alerts.
func flagName(kind string) string {
	return strings.ReplaceAll(kind, "_", "-")
}

func displayName(kind string) string {
	return strings.ReplaceAll(kind, "_", " ")
}
