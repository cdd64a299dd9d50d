package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/notexe/remind/internal/reminder"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")). // Bright cyan
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")). // Coral red
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")) // Warm yellow

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")). // Green
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")). // Yellow
			Bold(true)

	AccentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147")) // Light purple

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")). // Soft blue border
			Padding(0, 1)
)

type Formatter struct {
	colored bool
}

func NewFormatter(colored bool) *Formatter {
	return &Formatter{colored: colored}
}

func (f *Formatter) Colored() bool {
	return f.colored
}

func (f *Formatter) render(style lipgloss.Style, s string) string {
	if f.colored {
		return style.Render(s)
	}
	return s
}

func (f *Formatter) FormatError(err error) string {
	return f.render(ErrorStyle, "Error: ") + err.Error()
}

func (f *Formatter) FormatInfo(info string) string {
	return f.render(InfoStyle, info)
}

func (f *Formatter) FormatSuccess(msg string) string {
	return f.render(SuccessStyle, msg)
}

// FormatReminder renders one reminder as a block of labelled lines.
func (f *Formatter) FormatReminder(r reminder.Reminder) string {
	lines := []string{
		f.render(DimStyle, "["+r.ShortID()+"] ") + f.render(TitleStyle, r.Title) + " " + f.formatState(r.State()),
		"  " + r.Description,
		"  " + f.render(DimStyle, "Date: ") + r.Date.String() + f.render(DimStyle, "  Time: ") + r.Time.String(),
		"  " + f.render(DimStyle, "Notify: ") + fmt.Sprintf("%d hour(s) before", r.LeadHours),
	}
	return strings.Join(lines, "\n")
}

// FormatReminderList renders reminders separated by blank lines.
func (f *Formatter) FormatReminderList(reminders []reminder.Reminder) string {
	if len(reminders) == 0 {
		return f.FormatInfo("No reminders.")
	}
	blocks := make([]string, 0, len(reminders))
	for _, r := range reminders {
		blocks = append(blocks, f.FormatReminder(r))
	}
	return strings.Join(blocks, "\n\n")
}

func (f *Formatter) formatState(s reminder.State) string {
	label := "(" + s.String() + ")"
	switch s {
	case reminder.StateDue:
		return f.render(WarningStyle, label)
	case reminder.StateDelivered:
		return f.render(SuccessStyle, label)
	default:
		return f.render(AccentStyle, label)
	}
}

// FormatNotification wraps a delivered notification in a box.
func (f *Formatter) FormatNotification(summary, body string) string {
	return f.FormatBox("⏰ "+summary, body)
}

// FormatWelcome returns the shell banner.
func (f *Formatter) FormatWelcome(count int) string {
	lines := []string{
		"",
		f.render(TitleStyle, "Remind"),
		f.render(DimStyle, fmt.Sprintf("%d reminder(s) loaded. Type /help for commands.", count)),
		"",
	}
	return strings.Join(lines, "\n")
}

// FormatPrompt returns a styled input prompt
func (f *Formatter) FormatPrompt() string {
	if f.colored {
		promptStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("62"))
		arrowStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")).
			Bold(true)
		return promptStyle.Render("remind") + arrowStyle.Render(" > ")
	}
	return "remind > "
}

// FormatBox wraps content in a styled box
func (f *Formatter) FormatBox(title, content string) string {
	if f.colored {
		return TitleStyle.Render(title) + "\n" + BoxStyle.Render(content)
	}
	return title + "\n" + content
}
