package shell

import (
	"github.com/chzyer/readline"
)

// createCompleter completes command names and, per command, its arguments.
func (s *Shell) createCompleter() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, name := range s.registry.AllCompletions() {
		cmd, _ := s.registry.Get(name)
		items = append(items, readline.PcItem(name, readline.PcItemDynamic(cmd.Completions)))
	}
	return readline.NewPrefixCompleter(items...)
}

// filterInput blocks Ctrl+Z, which would suspend the shell mid-prompt.
func filterInput(r rune) (rune, bool) {
	switch r {
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}
