package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/notexe/remind/internal/reminder"
	"github.com/notexe/remind/internal/scheduler"
	"github.com/notexe/remind/internal/ui"
)

// REPL is an interactive shell over the reminder store. Every line the
// user enters is one refresh tick: the scheduler runs first, then the
// command.
type REPL struct {
	store     *reminder.Store
	scheduler *scheduler.Scheduler
	rl        *readline.Instance
	formatter *ui.Formatter
	out       io.Writer
	now       func() time.Time
}

func NewREPL(store *reminder.Store, sched *scheduler.Scheduler, formatter *ui.Formatter) (*REPL, error) {
	r := &REPL{
		store:     store,
		scheduler: sched,
		formatter: formatter,
		now:       time.Now,
	}

	rl, err := setupReadline(formatter.FormatPrompt(), r.completer())
	if err != nil {
		return nil, fmt.Errorf("failed to setup readline: %w", err)
	}
	r.rl = rl
	r.out = rl.Stdout()
	return r, nil
}

func (r *REPL) Start(ctx context.Context) error {
	defer r.rl.Close()

	r.displayWelcome()

	for {
		input, err := r.readInput()
		if err != nil {
			if isEOF(err) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		r.scheduler.Tick(ctx, r.now())

		if input == "" {
			continue
		}

		isCommand, command, args := r.parseCommand(input)
		if !isCommand {
			r.displayInfo("Commands start with /. Type /help for the list.")
			continue
		}

		if err := r.handleCommand(ctx, command, args); err != nil {
			r.displayError(err)
		}

		if isQuit(command) {
			return nil
		}
	}
}

func (r *REPL) handleCommand(ctx context.Context, command, args string) error {
	switch command {
	case "/help", "/h":
		r.displayHelp()
		return nil

	case "/list", "/ls":
		r.displayList(r.store.List())
		return nil

	case "/add", "/a":
		return r.handleAdd(ctx, args)

	case "/delete", "/rm":
		if args == "" {
			return fmt.Errorf("usage: /delete <id>")
		}
		found, err := r.store.Find(args)
		if err != nil {
			return err
		}
		if err := r.store.Remove(found.ID); err != nil {
			return err
		}
		if err := r.store.Save(ctx); err != nil {
			return fmt.Errorf("deleted in memory but not saved: %w", err)
		}
		r.displaySuccess(fmt.Sprintf("Deleted %q.", found.Title))
		return nil

	case "/check":
		res := r.scheduler.Tick(ctx, r.now())
		r.displayInfo(fmt.Sprintf("due: %d, delivered: %d, failed: %d", res.Due, res.Delivered, res.Failed))
		return nil

	case "/quit", "/exit", "/q":
		fmt.Fprintln(r.out, "Goodbye!")
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type /help)", command)
	}
}

// handleAdd parses "title | description | YYYY-MM-DD | HH:MM[:SS] [| lead]".
func (r *REPL) handleAdd(ctx context.Context, args string) error {
	parts := strings.Split(args, "|")
	if len(parts) < 4 || len(parts) > 5 {
		return fmt.Errorf("usage: /add title | description | YYYY-MM-DD | HH:MM [| lead hours]")
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	date, err := reminder.ParseDate(parts[2])
	if err != nil {
		return err
	}
	clock, err := reminder.ParseClock(parts[3])
	if err != nil {
		return err
	}
	lead := 0
	if len(parts) == 5 && parts[4] != "" {
		lead, err = strconv.Atoi(parts[4])
		if err != nil {
			return fmt.Errorf("invalid lead hours %q", parts[4])
		}
	}

	added, err := r.store.Add(reminder.Reminder{
		Title:       parts[0],
		Description: parts[1],
		Date:        date,
		Time:        clock,
		LeadHours:   lead,
	})
	if err != nil {
		if errors.Is(err, reminder.ErrIncomplete) {
			return fmt.Errorf("title and description are required")
		}
		return err
	}

	if err := r.store.Save(ctx); err != nil {
		return fmt.Errorf("added in memory but not saved: %w", err)
	}
	r.displaySuccess(fmt.Sprintf("Added %q [%s].", added.Title, added.ShortID()))
	return nil
}

func isQuit(command string) bool {
	switch command {
	case "/quit", "/exit", "/q":
		return true
	}
	return false
}
