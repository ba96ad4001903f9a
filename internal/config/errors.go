package config

import (
	"fmt"
	"strings"
)

// ConfigurationError is a config.yaml or environment value that could not
// be read.
type ConfigurationError struct {
	// FilePath is the file that failed to load, empty for the environment.
	FilePath string
	// FileName is the base name of the file, or "environment".
	FileName string
	// ErrorType is "parse" or "io".
	ErrorType string
	Message   string
	// Suggestions are printed below the message.
	Suggestions []string
}

// Error returns the message followed by the suggestions, one per line.
func (ce ConfigurationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", ce.ErrorType, ce.FileName, ce.Message)
	for _, s := range ce.Suggestions {
		fmt.Fprintf(&b, "\n  - %s", s)
	}
	return b.String()
}
