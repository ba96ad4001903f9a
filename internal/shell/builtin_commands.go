package shell

import (
	"context"
	"strings"
)

// HelpCommand shows available commands and usage information
type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

// NewHelpCommand creates a new help command
func NewHelpCommand(env *Env, registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand(env),
		registry:    registry,
	}
}

// Execute shows help information
func (h *HelpCommand) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		h.showGeneralHelp()
		return nil
	}

	commandName := strings.ToLower(args[0])
	command, exists := h.registry.Get(commandName)
	if !exists {
		h.println("Unknown command: %s", commandName)
		h.println("Use 'help' to see all available commands.")
		return nil
	}

	h.println("Command: %s", commandName)
	h.println("Description: %s", command.Description())
	h.println("Usage: %s", command.Usage())
	if aliases := command.Aliases(); len(aliases) > 0 {
		h.println("Aliases: %s", strings.Join(aliases, ", "))
	}
	return nil
}

func (h *HelpCommand) showGeneralHelp() {
	h.println("Available commands:")
	for _, name := range h.registry.List() {
		cmd, _ := h.registry.Get(name)
		h.println("  %-44s - %s", cmd.Usage(), cmd.Description())
	}
	h.println("")
	h.println("Keyboard shortcuts:")
	h.println("  %-44s - %s", "TAB", "Auto-complete commands and arguments")
	h.println("  %-44s - %s", "↑/↓ (arrow keys)", "Navigate command history")
	h.println("  %-44s - %s", "Ctrl+R", "Search command history")
	h.println("  %-44s - %s", "Ctrl+C", "Cancel current line")
	h.println("  %-44s - %s", "Ctrl+D", "Exit the shell")
	h.println("")
	h.println("Examples:")
	h.println("  open /explorer?category=sensor&limit=10")
	h.println("  explore category=market quality=high start=2024-01-01")
	h.println("  subscribe sensor quality=high notify=https://hooks.example.com/dm")
}

// Usage returns the usage string
func (h *HelpCommand) Usage() string {
	return "help [command]"
}

// Description returns the command description
func (h *HelpCommand) Description() string {
	return "Show help information for commands"
}

// Completions returns all command names
func (h *HelpCommand) Completions(string) []string {
	return h.registry.AllCompletions()
}

// Aliases returns command aliases
func (h *HelpCommand) Aliases() []string {
	return []string{"?"}
}

// ExitCommand ends the shell
type ExitCommand struct {
	*BaseCommand
}

// NewExitCommand creates a new exit command
func NewExitCommand(env *Env) *ExitCommand {
	return &ExitCommand{BaseCommand: NewBaseCommand(env)}
}

// Execute signals the shell to stop
func (e *ExitCommand) Execute(context.Context, []string) error {
	return errExit
}

// Usage returns the usage string
func (e *ExitCommand) Usage() string {
	return "exit"
}

// Description returns the command description
func (e *ExitCommand) Description() string {
	return "Exit the shell"
}

// Aliases returns command aliases
func (e *ExitCommand) Aliases() []string {
	return []string{"quit", "q"}
}
