package app

import (
	"io"

	"datamart/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Custom configuration path (optional)
	// When empty, ~/.config/datamart is used
	ConfigPath string

	// Output format for views: table, json or yaml
	OutputFormat string

	// NoColor disables colored table output
	NoColor bool

	// Out receives rendered views. Defaults to stdout.
	Out io.Writer

	// ErrOut receives logs and the waiting indicator. Defaults to stderr.
	ErrOut io.Writer

	// Interactive shows a spinner while the session resolves.
	Interactive bool

	// OpenBrowser opens provider authorization pages. Defaults to
	// session.OpenBrowser.
	OpenBrowser func(url string) error

	// Resolved configuration. When set, no file or environment is read.
	DatamartConfig *config.DatamartConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, outputFormat string) *Config {
	return &Config{
		Debug:        debug,
		ConfigPath:   configPath,
		OutputFormat: outputFormat,
	}
}
