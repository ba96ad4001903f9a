package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"datamart/internal/app"
	"datamart/internal/cli"
	"datamart/internal/session"
	"datamart/internal/views"
	dmstrings "datamart/pkg/strings"

	"github.com/chzyer/readline"
)

const (
	promptPrefix         = "datamart"
	promptChevronUnicode = "»"
	promptChevronASCII   = ">"
)

// StateLoggedOut is shown in the prompt while there is no session.
const StateLoggedOut = "[LOGGED OUT]"

// maxUserLength is the longest user name shown in the prompt.
const maxUserLength = 28

// commandExecutionTimeout bounds one command. It is longer than the OAuth
// callback wait so a provider login is never cut short.
const commandExecutionTimeout = session.CallbackTimeout + time.Minute

// Shell is an interactive session over the datamart pages and commands. It
// keeps the prompt in sync with the session status.
type Shell struct {
	env        *Env
	errOut     io.Writer
	registry   *Registry
	rl         *readline.Instance
	useUnicode bool

	mu       sync.RWMutex
	snapshot session.Snapshot
}

// New creates a shell over services. Views and command output go to out,
// errors and notices to errOut.
func New(services *app.Services, out, errOut io.Writer) *Shell {
	s := &Shell{
		env:        &Env{Services: services, Out: out},
		errOut:     errOut,
		registry:   NewRegistry(),
		useUnicode: detectUnicodeSupport(),
		snapshot:   services.Session.Snapshot(),
	}
	s.registerCommands()
	return s
}

// SetPrompter replaces how commands ask for input.
func (s *Shell) SetPrompter(p cli.Prompter) {
	s.env.Prompter = p
}

func (s *Shell) registerCommands() {
	s.registry.Register("help", NewHelpCommand(s.env, s.registry))
	s.registry.Register("open", NewOpenCommand(s.env))
	s.registry.Register("explore", NewExploreCommand(s.env))
	s.registry.Register("login", NewLoginCommand(s.env))
	s.registry.Register("register", NewRegisterCommand(s.env))
	s.registry.Register("verify", NewVerifyCommand(s.env))
	s.registry.Register("oauth", NewOAuthCommand(s.env))
	s.registry.Register("logout", NewLogoutCommand(s.env))
	s.registry.Register("whoami", NewWhoamiCommand(s.env))
	s.registry.Register("subscribe", NewSubscribeCommand(s.env))
	s.registry.Register("unsubscribe", NewUnsubscribeCommand(s.env))
	s.registry.Register("pause", NewPauseCommand(s.env))
	s.registry.Register("resume", NewResumeCommand(s.env))
	s.registry.Register("upload", NewUploadCommand(s.env))
	s.registry.Register("profile", NewProfileCommand(s.env))
	s.registry.Register("notify", NewNotifyCommand(s.env))
	s.registry.Register("apikey", NewAPIKeyCommand(s.env))
	s.registry.Register("exit", NewExitCommand(s.env))
}

// detectUnicodeSupport checks if the terminal likely supports unicode characters.
func detectUnicodeSupport() bool {
	term := os.Getenv("TERM")
	if term == "" || term == "dumb" {
		return false
	}
	for _, v := range []string{os.Getenv("LANG"), os.Getenv("LC_ALL")} {
		v = strings.ToLower(v)
		if strings.Contains(v, "utf-8") || strings.Contains(v, "utf8") {
			return true
		}
	}
	return !strings.Contains(strings.ToLower(term), "vt100")
}

// buildPrompt creates the prompt for the current session.
// Format examples:
//   - "datamart » " - session still resolving
//   - "datamart Ada Lovelace » " - logged in
//   - "datamart [LOGGED OUT] » " - no session
func (s *Shell) buildPrompt() string {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	parts := []string{promptPrefix}
	switch snap.Status {
	case session.StatusAuthenticated:
		if snap.User != nil {
			parts = append(parts, truncateUserName(snap.User.DisplayName()))
		}
	case session.StatusUnauthenticated:
		parts = append(parts, StateLoggedOut)
	}

	chevron := promptChevronASCII
	if s.useUnicode {
		chevron = promptChevronUnicode
	}
	parts = append(parts, chevron)
	return strings.Join(parts, " ") + " "
}

// truncateUserName keeps the start and end of long names.
func truncateUserName(name string) string {
	return dmstrings.TruncateMiddle(name, maxUserLength)
}

// setSnapshot records the session state and refreshes the prompt.
func (s *Shell) setSnapshot(snap session.Snapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	if s.rl != nil {
		s.rl.SetPrompt(s.buildPrompt())
	}
}

// executeCommand parses input and runs the matching command.
func (s *Shell) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command, exists := s.registry.Get(strings.ToLower(parts[0]))
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}

	commandCtx, commandCancel := context.WithTimeout(ctx, commandExecutionTimeout)
	defer commandCancel()

	return command.Execute(commandCtx, parts[1:])
}

// describeError turns a command failure into the line shown to the user.
func describeError(err error) string {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return cli.FormatError(errors.New("not logged in. Run 'login' or 'oauth <provider>'"))
	case errors.Is(err, cli.ErrPromptCancelled):
		return "Cancelled."
	}
	return cli.FormatError(errors.New(views.Message(err)))
}

// Run restores the session, shows the dashboard (or the login page) and
// reads commands until exit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context) error {
	historyFile := filepath.Join(os.TempDir(), ".datamart_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.buildPrompt(),
		HistoryFile:     historyFile,
		AutoComplete:    s.createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()
	s.rl = rl
	if s.env.Prompter == nil {
		s.env.Prompter = cli.NewReadlinePrompter(rl)
	}

	sess := s.env.Services.Session
	unsubscribe := sess.Subscribe(s.setSnapshot)
	defer unsubscribe()
	s.setSnapshot(sess.Restore(ctx))

	fmt.Fprintln(s.errOut, "DataMart shell. Type 'help' for available commands. Use TAB for completion.")
	if err := s.env.Services.Router.Navigate(ctx, "/"); err != nil {
		fmt.Fprintln(s.errOut, describeError(err))
	}
	fmt.Fprintln(s.env.Out)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.errOut, "Shutting down...")
			return nil
		default:
		}

		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.errOut, "Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := s.executeCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(s.errOut, "Goodbye!")
				return nil
			}
			fmt.Fprintln(s.errOut, describeError(err))
		}

		fmt.Fprintln(s.env.Out)
	}
}
