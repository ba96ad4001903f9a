package cli

import (
	"os"

	"datamart/internal/app"
	"datamart/internal/formatting"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// CommandFlags holds the flag values shared by every datamart command.
type CommandFlags struct {
	// OutputFormat specifies the desired output format (table, json, yaml)
	OutputFormat string
	// NoColor disables colored table output
	NoColor bool
	// Quiet suppresses the waiting indicator and non-essential output
	Quiet bool
	// Debug enables verbose logging of backend requests
	Debug bool
	// ConfigPath specifies a custom configuration directory path
	ConfigPath string
}

// RegisterCommonFlags registers the shared flags as persistent flags on cmd.
//
// The registered flags are:
//   - --output/-o: Output format (table, json, yaml), default: "table"
//   - --no-color: Disable colored output
//   - --quiet/-q: Suppress non-essential output
//   - --debug: Enable debug logging
//   - --config-path: Configuration directory
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", "", "Configuration directory (default ~/.config/datamart)")
}

// ToAppConfig converts the flags into an application configuration. The
// output format is validated here so a typo fails before any request.
func (f *CommandFlags) ToAppConfig() (*app.Config, error) {
	if _, err := formatting.ParseFormat(f.OutputFormat); err != nil {
		return nil, &InvalidInputError{Reason: err}
	}

	cfg := app.NewConfig(f.Debug, f.ConfigPath, f.OutputFormat)
	cfg.NoColor = f.NoColor || os.Getenv("NO_COLOR") != ""
	cfg.Interactive = !f.Quiet && IsTerminal(os.Stderr)
	return cfg, nil
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
