package cmd

import (
	"context"
	"fmt"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/marketplace"

	"github.com/spf13/cobra"
)

// newSubscriptionsCmd creates the subscriptions command group. Without a
// subcommand it lists the subscriptions.
func newSubscriptionsCmd(flags *cli.CommandFlags) *cobra.Command {
	list := func(cmd *cobra.Command, args []string) error {
		return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
			return openProtected(ctx, application, "/subscriptions")
		})
	}

	cmd := &cobra.Command{
		Use:     "subscriptions",
		Aliases: []string{"subscription", "subs"},
		Short:   "Manage data subscriptions",
		Long: `Manage data subscriptions. A subscription sends a notification when new
data arrives in a category, optionally to a webhook.

Examples:
  datamart subscriptions
  datamart subscriptions create sensor --filter quality=high --notify https://hooks.example.com/dm
  datamart subscriptions update sub-1 --active=false
  datamart subscriptions delete sub-1`,
		Args: cobra.NoArgs,
		RunE: list,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List your subscriptions",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		newSubscriptionsCreateCmd(flags),
		newSubscriptionsUpdateCmd(flags),
		newSubscriptionsDeleteCmd(flags),
	)
	return cmd
}

func newSubscriptionsCreateCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		filters map[string]string
		notify  string
	)

	cmd := &cobra.Command{
		Use:       "create <category>",
		Short:     "Subscribe to a data category",
		Args:      cobra.ExactArgs(1),
		ValidArgs: marketplace.Categories,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				sub, err := s.Market.Subscribe(ctx, marketplace.SubscriptionRequest{
					Category:        args[0],
					Filters:         toFilters(filters),
					NotificationURL: notify,
				})
				if err != nil {
					return err
				}
				return s.Formatter.Subscription(cmd.OutOrStdout(), sub)
			})
		},
	}

	cmd.Flags().StringToStringVar(&filters, "filter", nil, "Filter as key=value (repeatable)")
	cmd.Flags().StringVar(&notify, "notify", "", "Webhook URL to notify")
	return cmd
}

func newSubscriptionsUpdateCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		filters map[string]string
		notify  string
		active  bool
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a subscription's filters, webhook or active state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			update := marketplace.SubscriptionUpdate{Filters: toFilters(filters)}
			if cmd.Flags().Changed("notify") {
				update.NotificationURL = &notify
			}
			if cmd.Flags().Changed("active") {
				update.IsActive = &active
			}

			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				sub, err := s.Market.UpdateSubscription(ctx, args[0], update)
				if err != nil {
					return err
				}
				return s.Formatter.Subscription(cmd.OutOrStdout(), sub)
			})
		},
	}

	cmd.Flags().StringToStringVar(&filters, "filter", nil, "Replace the filters, as key=value (repeatable)")
	cmd.Flags().StringVar(&notify, "notify", "", "Webhook URL to notify (empty to remove)")
	cmd.Flags().BoolVar(&active, "active", true, "Whether notifications are sent")
	return cmd
}

func newSubscriptionsDeleteCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a subscription",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				if err := s.Market.Unsubscribe(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted subscription "+args[0]))
				return nil
			})
		},
	}
}

func toFilters(in map[string]string) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
