package repl

import (
	"fmt"

	"github.com/notexe/remind/internal/reminder"
)

func (r *REPL) displayList(reminders []reminder.Reminder) {
	fmt.Fprintln(r.out, r.formatter.FormatReminderList(reminders))
	fmt.Fprintln(r.out)
}

func (r *REPL) displayError(err error) {
	fmt.Fprintln(r.out, r.formatter.FormatError(err))
	fmt.Fprintln(r.out)
}

func (r *REPL) displayWelcome() {
	fmt.Fprint(r.out, r.formatter.FormatWelcome(r.store.Len()))
	if err := r.store.Halted(); err != nil {
		r.displayError(fmt.Errorf("store is read-only until the file is fixed: %w", err))
	}
}

func (r *REPL) displayInfo(msg string) {
	fmt.Fprintln(r.out, r.formatter.FormatInfo(msg))
	fmt.Fprintln(r.out)
}

func (r *REPL) displaySuccess(msg string) {
	fmt.Fprintln(r.out, r.formatter.FormatSuccess(msg))
	fmt.Fprintln(r.out)
}
