package ui

import (
	"errors"
	"testing"
	"time"

	"github.com/notexe/remind/internal/reminder"
	"github.com/stretchr/testify/assert"
)

func TestFormatReminderList(t *testing.T) {
	f := NewFormatter(false)

	assert.Equal(t, "No reminders.", f.FormatReminderList(nil))

	out := f.FormatReminderList([]reminder.Reminder{
		{
			ID:          "0123456789abcdef",
			Title:       "Dentist",
			Description: "Bring insurance card",
			Date:        reminder.Date{Year: 2025, Month: time.March, Day: 1},
			Time:        reminder.Clock{Hour: 14},
			LeadHours:   1,
			DidNotify:   true,
		},
		{ID: "x", Title: "Call mom", Description: "Sunday"},
	})

	assert.Contains(t, out, "[01234567] Dentist (delivered)")
	assert.Contains(t, out, "Date: 2025-03-01  Time: 14:00:00")
	assert.Contains(t, out, "Notify: 1 hour(s) before")
	assert.Contains(t, out, "[x] Call mom (pending)")
}

func TestFormatPlain(t *testing.T) {
	f := NewFormatter(false)
	assert.False(t, f.Colored())
	assert.Equal(t, "Error: boom", f.FormatError(errors.New("boom")))
	assert.Equal(t, "⏰ Title\nbody", f.FormatNotification("Title", "body"))
	assert.Equal(t, "remind > ", f.FormatPrompt())
}
