package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/notexe/remind/internal/reminder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, store string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	argv := append([]string{"remind", "--config", "", "--store", store, "--no-color"}, args...)
	err := Execute(argv, &out)
	return out.String(), err
}

func TestAddListDelete(t *testing.T) {
	t.Setenv("REMIND_NOTIFY__DESKTOP__ENABLED", "false")
	store := filepath.Join(t.TempDir(), "output.json")

	out, err := run(t, store, "add",
		"--title", "Dentist",
		"--description", "Bring card",
		"--date", "2025-03-01",
		"--time", "14:00",
		"--lead", "1")
	require.NoError(t, err)
	id := strings.TrimSpace(out)
	require.NotEmpty(t, id)

	out, err = run(t, store, "list", "--json")
	require.NoError(t, err)
	var listed []reminder.Reminder
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, id, listed[0].ID)
	assert.Equal(t, 1, listed[0].LeadHours)

	out, err = run(t, store, "edit", "--title", "Orthodontist", id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Orthodontist")

	out, err = run(t, store, "list", "--state", "delivered")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")

	out, err = run(t, store, "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted "Orthodontist"`)

	out, err = run(t, store, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No reminders.")
}

func TestAddRequiresFields(t *testing.T) {
	t.Setenv("REMIND_NOTIFY__DESKTOP__ENABLED", "false")
	store := filepath.Join(t.TempDir(), "output.json")

	_, err := run(t, store, "add", "--title", "Dentist", "--time", "14:00")
	assert.Error(t, err)

	_, err = run(t, store, "add", "--title", "Dentist", "--description", "x")
	assert.Error(t, err)

	out, err := run(t, store, "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestDeleteMissing(t *testing.T) {
	t.Setenv("REMIND_NOTIFY__DESKTOP__ENABLED", "false")
	store := filepath.Join(t.TempDir(), "output.json")

	_, err := run(t, store, "delete")
	assert.Error(t, err)

	_, err = run(t, store, "delete", "nope")
	assert.ErrorIs(t, err, reminder.ErrNotFound)
}

func setClock(t *testing.T, at time.Time) {
	t.Helper()
	old := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = old })
}

func readStore(t *testing.T, path string) map[string]reminder.Reminder {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rs []reminder.Reminder
	require.NoError(t, json.Unmarshal(data, &rs))

	byTitle := make(map[string]reminder.Reminder, len(rs))
	for _, r := range rs {
		byTitle[r.Title] = r
	}
	return byTitle
}

func TestCheckAndDeliver(t *testing.T) {
	t.Setenv("REMIND_NOTIFY__DESKTOP__ENABLED", "false")
	setClock(t, time.Date(2025, time.March, 1, 13, 0, 0, 0, time.Local))
	store := filepath.Join(t.TempDir(), "output.json")

	_, err := run(t, store, "add", "--title", "Dentist", "--description", "Bring card",
		"--date", "2025-03-01", "--time", "14:00", "--lead", "1")
	require.NoError(t, err)
	out, err := run(t, store, "add", "--title", "Standup", "--description", "Daily",
		"--date", "2025-03-02", "--time", "09:30")
	require.NoError(t, err)
	standupID := strings.TrimSpace(out)

	// check only lists
	out, err = run(t, store, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "Dentist")
	assert.NotContains(t, out, "Standup")
	assert.NotContains(t, out, "⏰")
	assert.False(t, readStore(t, store)["Dentist"].DidNotify)

	out, err = run(t, store, "check", "--deliver")
	require.NoError(t, err)
	assert.Contains(t, out, "due: 1, delivered: 1, failed: 0")
	assert.Contains(t, out, "⏰ Dentist")

	persisted := readStore(t, store)
	assert.True(t, persisted["Dentist"].DidNotify)
	assert.False(t, persisted["Standup"].DidNotify)

	out, err = run(t, store, "check", "--deliver")
	require.NoError(t, err)
	assert.Contains(t, out, "due: 0, delivered: 0, failed: 0")
	assert.NotContains(t, out, "⏰")

	// deliver by ID prefix ignores the schedule
	out, err = run(t, store, "deliver", standupID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "⏰ Standup")
	assert.Contains(t, out, `Delivered "Standup"`)
	assert.True(t, readStore(t, store)["Standup"].DidNotify)

	out, err = run(t, store, "deliver", standupID)
	require.NoError(t, err)
	assert.Contains(t, out, "already delivered")
	assert.NotContains(t, out, "⏰")

	_, err = run(t, store, "deliver")
	assert.Error(t, err)
}
