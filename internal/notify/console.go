package notify

import (
	"context"
	"fmt"
	"io"

	"github.com/notexe/remind/internal/ui"
)

// Console prints notifications to a terminal.
type Console struct {
	out       io.Writer
	formatter *ui.Formatter
}

func NewConsole(out io.Writer, formatter *ui.Formatter) *Console {
	return &Console{out: out, formatter: formatter}
}

func (c *Console) Notify(_ context.Context, n Notification) error {
	if _, err := fmt.Fprintln(c.out, c.formatter.FormatNotification(n.Summary, n.Body)); err != nil {
		return fmt.Errorf("failed to print notification: %w", err)
	}
	return nil
}
