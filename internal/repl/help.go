package repl

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = "# Commands\n\n" +
	"- `/add title | description | YYYY-MM-DD | HH:MM [| lead hours]` add a reminder\n" +
	"- `/list` list reminders\n" +
	"- `/delete <id>` delete a reminder by ID or ID prefix\n" +
	"- `/check` run a notification check now\n" +
	"- `/help` show this help\n" +
	"- `/quit` exit\n\n" +
	"Every line you enter also checks for due reminders. Run `remind watch` " +
	"to be notified without typing.\n"

func (r *REPL) displayHelp() {
	fmt.Fprintln(r.out, renderHelp(r.formatter.Colored()))
}

// renderHelp renders the help markdown, falling back to the raw text.
func renderHelp(colored bool) string {
	style := glamour.WithStandardStyle("notty")
	if colored {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(80))
	if err != nil {
		return helpMarkdown
	}
	out, err := renderer.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return out
}
