package shell

import (
	"context"
	"errors"
	"sort"
)

// errExit is returned by a command to end the shell.
var errExit = errors.New("exit")

// Command represents a shell command that can be executed interactively.
type Command interface {
	// Execute runs the command with the given arguments
	Execute(ctx context.Context, args []string) error

	// Usage returns the usage string for the command
	Usage() string

	// Description returns a brief description of what the command does
	Description() string

	// Completions returns possible completions for the command's arguments
	Completions(input string) []string

	// Aliases returns alternative names for this command
	Aliases() []string
}

// Registry manages the commands available in the shell.
type Registry struct {
	commands map[string]Command
	aliases  map[string]string // alias -> primary command name
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command and its aliases.
func (r *Registry) Register(name string, cmd Command) {
	r.commands[name] = cmd
	for _, alias := range cmd.Aliases() {
		r.aliases[alias] = name
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	if cmd, exists := r.commands[name]; exists {
		return cmd, true
	}
	if primary, exists := r.aliases[name]; exists {
		cmd, exists := r.commands[primary]
		return cmd, exists
	}
	return nil, false
}

// List returns the registered command names in sorted order.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllCompletions returns every command name and alias in sorted order.
func (r *Registry) AllCompletions() []string {
	completions := r.List()
	for alias := range r.aliases {
		completions = append(completions, alias)
	}
	sort.Strings(completions)
	return completions
}
