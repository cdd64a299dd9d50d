package repl

import (
	"errors"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

func (r *REPL) readInput() (string, error) {
	line, err := r.rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseCommand splits "/cmd args" into a lowercased command and the
// trimmed remainder. Lines without a leading slash are not commands.
func (r *REPL) parseCommand(input string) (bool, string, string) {
	if !strings.HasPrefix(input, "/") {
		return false, "", ""
	}

	command, args, _ := strings.Cut(input, " ")
	return true, strings.ToLower(command), strings.TrimSpace(args)
}

// completeIDs offers the short IDs of stored reminders to /delete.
func (r *REPL) completeIDs(string) []string {
	reminders := r.store.List()
	ids := make([]string, 0, len(reminders))
	for _, rem := range reminders {
		ids = append(ids, rem.ShortID())
	}
	return ids
}

func (r *REPL) completer() *readline.PrefixCompleter {
	ids := readline.PcItemDynamic(r.completeIDs)
	return readline.NewPrefixCompleter(
		readline.PcItem("/add"),
		readline.PcItem("/list"),
		readline.PcItem("/delete", ids),
		readline.PcItem("/rm", ids),
		readline.PcItem("/check"),
		readline.PcItem("/help"),
		readline.PcItem("/quit"),
	)
}

func setupReadline(prompt string, completer readline.AutoCompleter) (*readline.Instance, error) {
	return readline.NewEx(&readline.Config{
		Prompt:              prompt,
		AutoComplete:        completer,
		InterruptPrompt:     "^C",
		EOFPrompt:           "exit",
		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
}

func filterInput(r rune) (rune, bool) {
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, readline.ErrInterrupt)
}
