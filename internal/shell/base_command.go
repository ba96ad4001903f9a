package shell

import (
	"fmt"
	"io"
	"strings"

	"datamart/internal/app"
	"datamart/internal/cli"
)

// Env is what commands act on. The shell fills in Prompter once the
// terminal is open.
type Env struct {
	Services *app.Services
	Out      io.Writer
	Prompter cli.Prompter
}

// BaseCommand provides the dependencies and helpers shared by commands.
type BaseCommand struct {
	env *Env
}

// NewBaseCommand creates a base command acting on env.
func NewBaseCommand(env *Env) *BaseCommand {
	return &BaseCommand{env: env}
}

func (b *BaseCommand) println(format string, args ...interface{}) {
	fmt.Fprintf(b.env.Out, format+"\n", args...)
}

// parseArgs checks that at least minArgs arguments were given.
func (b *BaseCommand) parseArgs(args []string, minArgs int, usage string) ([]string, error) {
	if len(args) < minArgs {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	return args, nil
}

// prompt asks for a value that was not given on the command line.
func (b *BaseCommand) prompt(label string, secret bool) (string, error) {
	if b.env.Prompter == nil {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	if secret {
		return b.env.Prompter.Password(label + ": ")
	}
	return b.env.Prompter.Line(label + ": ")
}

// Completions returns nothing; commands with arguments override it.
func (b *BaseCommand) Completions(string) []string {
	return nil
}

// Aliases returns nothing; commands with aliases override it.
func (b *BaseCommand) Aliases() []string {
	return nil
}

// stripQuotes removes surrounding single or double quotes from a string.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// parseKeyValueArgs parses key=value arguments. Arguments without '=' are
// returned separately in order.
func parseKeyValueArgs(args []string) (map[string]string, []string) {
	params := make(map[string]string)
	var rest []string
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			rest = append(rest, arg)
			continue
		}
		params[key] = stripQuotes(value)
	}
	return params, rest
}
