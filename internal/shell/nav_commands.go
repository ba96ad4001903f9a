package shell

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"datamart/internal/marketplace"
	"datamart/internal/views"
)

// OpenCommand navigates to an in-app path
type OpenCommand struct {
	*BaseCommand
}

// NewOpenCommand creates a new open command
func NewOpenCommand(env *Env) *OpenCommand {
	return &OpenCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute navigates to the given path
func (o *OpenCommand) Execute(ctx context.Context, args []string) error {
	args, err := o.parseArgs(args, 1, o.Usage())
	if err != nil {
		return err
	}
	target := args[0]
	if !strings.HasPrefix(target, "/") {
		target = "/" + target
	}
	return o.env.Services.Router.Navigate(ctx, target)
}

// Usage returns the usage string
func (o *OpenCommand) Usage() string {
	return "open <path>"
}

// Description returns the command description
func (o *OpenCommand) Description() string {
	return "Open a page, e.g. /, /explorer or /settings"
}

// Completions returns the navigable paths
func (o *OpenCommand) Completions(string) []string {
	return views.Paths()
}

// Aliases returns command aliases
func (o *OpenCommand) Aliases() []string {
	return []string{"go", "cd"}
}

// explorerFilters are the keys the explore command accepts.
var explorerFilters = []string{"category", "quality", "start", "end", "limit"}

// ExploreCommand opens the data explorer with filters
type ExploreCommand struct {
	*BaseCommand
}

// NewExploreCommand creates a new explore command
func NewExploreCommand(env *Env) *ExploreCommand {
	return &ExploreCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute opens /explorer with the given key=value filters. A bare first
// argument is taken as the category.
func (e *ExploreCommand) Execute(ctx context.Context, args []string) error {
	params, rest := parseKeyValueArgs(args)
	if len(rest) > 1 {
		return fmt.Errorf("usage: %s", e.Usage())
	}
	if len(rest) == 1 {
		params["category"] = rest[0]
	}

	q := url.Values{}
	for key, value := range params {
		if !slices.Contains(explorerFilters, key) {
			return fmt.Errorf("unknown filter %q (valid: %s)", key, strings.Join(explorerFilters, ", "))
		}
		q.Set(key, value)
	}

	target := "/explorer"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	return e.env.Services.Router.Navigate(ctx, target)
}

// Usage returns the usage string
func (e *ExploreCommand) Usage() string {
	return "explore [category] [quality=..] [start=..] [end=..] [limit=..]"
}

// Description returns the command description
func (e *ExploreCommand) Description() string {
	return "Browse data points with filters"
}

// Completions returns categories and filter keys
func (e *ExploreCommand) Completions(string) []string {
	completions := append([]string{}, marketplace.Categories...)
	for _, f := range explorerFilters {
		completions = append(completions, f+"=")
	}
	sort.Strings(completions)
	return completions
}

// Aliases returns command aliases
func (e *ExploreCommand) Aliases() []string {
	return []string{"explorer"}
}
