package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/marketplace"
	"datamart/internal/views"

	"github.com/spf13/cobra"
)

func newOpenCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open <path>",
		Short: "Render a page by its path",
		Long: `Render a page by its path, exactly as the shell does. Protected pages
show the login page when there is no session.

Examples:
  datamart open /
  datamart open "/explorer?category=sensor&limit=5"
  datamart open /settings`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: views.Paths(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				return application.Open(ctx, args[0])
			})
		},
	}
}

func newDashboardCmd(flags *cli.CommandFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show headline stats, recent data and your subscriptions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				return openProtected(ctx, application, "/")
			})
		},
	}
}

func newExplorerCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		category string
		quality  string
		start    string
		end      string
		limit    int
	)

	cmd := &cobra.Command{
		Use:     "explorer",
		Aliases: []string{"explore", "data"},
		Short:   "Browse data points",
		Long: `Browse data points, newest first.

Dates are YYYY-MM-DD days or RFC 3339 timestamps; an end day includes the
whole day.

Examples:
  datamart explorer --category sensor --quality high
  datamart explorer --start 2024-01-01 --end 2024-01-31 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			for key, value := range map[string]string{"category": category, "quality": quality, "start": start, "end": end} {
				if value != "" {
					q.Set(key, value)
				}
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}

			target := "/explorer"
			if len(q) > 0 {
				target += "?" + q.Encode()
			}
			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				return openProtected(ctx, application, target)
			})
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Data category (sensor, behavioral, environmental, market, ai_training)")
	cmd.Flags().StringVar(&quality, "quality", "", "Quality grade (high, medium, low, unverified)")
	cmd.Flags().StringVar(&start, "start", "", "Earliest timestamp")
	cmd.Flags().StringVar(&end, "end", "", "Latest timestamp")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of data points")
	_ = cmd.RegisterFlagCompletionFunc("category", fixedCompletions(marketplace.Categories))
	_ = cmd.RegisterFlagCompletionFunc("quality", fixedCompletions(marketplace.Qualities))

	cmd.AddCommand(newDataSubmitCmd(flags))
	return cmd
}

func newDataSubmitCmd(flags *cli.CommandFlags) *cobra.Command {
	var (
		quality  string
		privacy  string
		lat, lon float64
		metadata map[string]string
	)

	cmd := &cobra.Command{
		Use:     "submit <category> <value>",
		Aliases: []string{"upload"},
		Short:   "Upload a data point",
		Long: `Upload a data point. A value that parses as a number is sent as one;
anything else is sent as text.

Examples:
  datamart explorer submit sensor 21.5 --lat 51.5 --lon -0.12
  datamart data upload market rising --privacy public -o json`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: marketplace.Categories,
		RunE: func(cmd *cobra.Command, args []string) error {
			sub := marketplace.DataSubmission{
				Category:     args[0],
				Value:        marketplace.ParseValue(args[1]),
				Quality:      quality,
				PrivacyLevel: privacy,
				Metadata:     toFilters(metadata),
			}
			switch latSet, lonSet := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon"); {
			case latSet && lonSet:
				sub.Location = &marketplace.Location{Latitude: lat, Longitude: lon}
			case latSet || lonSet:
				return &cli.InvalidInputError{Reason: fmt.Errorf("--lat and --lon must be given together")}
			}

			return runWithApp(cmd, flags, func(ctx context.Context, application *app.Application) error {
				s := application.Services()
				s.Session.Restore(ctx)

				point, err := s.Market.SubmitData(ctx, sub)
				if err != nil {
					return err
				}
				return s.Formatter.DataPoint(cmd.OutOrStdout(), point)
			})
		},
	}

	cmd.Flags().StringVar(&quality, "quality", "", "Quality grade (high, medium, low, unverified)")
	cmd.Flags().StringVar(&privacy, "privacy", "", "Privacy level (public, protected, private, sensitive)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude where the value was recorded")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude where the value was recorded")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "Metadata as key=value (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("quality", fixedCompletions(marketplace.Qualities))
	_ = cmd.RegisterFlagCompletionFunc("privacy", fixedCompletions(marketplace.PrivacyLevels))
	return cmd
}

func fixedCompletions(values []string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}
