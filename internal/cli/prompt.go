package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

// ErrPromptCancelled is returned when the user interrupts a prompt.
var ErrPromptCancelled = errors.New("prompt cancelled")

// Prompter asks the user for input.
type Prompter interface {
	// Line reads one line of visible input.
	Line(prompt string) (string, error)
	// Password reads one line without echoing it.
	Password(prompt string) (string, error)
}

// ReadlinePrompter prompts through a readline instance.
type ReadlinePrompter struct {
	rl *readline.Instance
}

// NewReadlinePrompter wraps rl. The caller keeps ownership of rl.
func NewReadlinePrompter(rl *readline.Instance) *ReadlinePrompter {
	return &ReadlinePrompter{rl: rl}
}

// NewTerminalPrompter opens a readline instance on the terminal. Close it
// when done.
func NewTerminalPrompter() (*ReadlinePrompter, func() error, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       "",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open terminal: %w", err)
	}
	return NewReadlinePrompter(rl), rl.Close, nil
}

// Line reads a line with prompt, restoring the previous prompt afterwards.
func (p *ReadlinePrompter) Line(prompt string) (string, error) {
	previous := p.rl.Config.Prompt
	p.rl.SetPrompt(prompt)
	defer p.rl.SetPrompt(previous)

	line, err := p.rl.Readline()
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(line), nil
}

// Password reads a line without echo.
func (p *ReadlinePrompter) Password(prompt string) (string, error) {
	secret, err := p.rl.ReadPassword(prompt)
	if err != nil {
		return "", promptError(err)
	}
	return string(secret), nil
}

func promptError(err error) error {
	if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
		return ErrPromptCancelled
	}
	return err
}

// ReaderPrompter answers prompts from a reader, one line per prompt. It
// serves piped input such as --password-stdin.
type ReaderPrompter struct {
	scanner *bufio.Scanner
}

// NewReaderPrompter reads answers from r.
func NewReaderPrompter(r io.Reader) *ReaderPrompter {
	return &ReaderPrompter{scanner: bufio.NewScanner(r)}
}

// Line returns the next line from the reader.
func (p *ReaderPrompter) Line(string) (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrPromptCancelled
	}
	return strings.TrimRight(p.scanner.Text(), "\r"), nil
}

// Password returns the next line from the reader.
func (p *ReaderPrompter) Password(prompt string) (string, error) {
	return p.Line(prompt)
}
