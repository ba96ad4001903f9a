// Package cli provides the command-line plumbing shared by datamart commands.
//
// # Flags
//
// CommandFlags and RegisterCommonFlags give every command the same
// --output, --no-color, --quiet, --debug and --config-path flags.
// ToAppConfig turns them into an app.Config.
//
// # Errors
//
// Session and marketplace errors are translated into CLI errors with
// Translate. Each CLI error type maps to a process exit code in cmd:
//
//   - AuthRequiredError: no session; tells the user how to log in
//   - AuthFailedError: the backend rejected credentials or a callback
//   - InvalidInputError: input rejected before any request was sent
//   - ConnectionError: the backend could not be reached
//
// # Prompts
//
// Prompter abstracts reading a line or a password. ReadlinePrompter reads
// from the terminal; ReaderPrompter answers from piped input.
package cli
