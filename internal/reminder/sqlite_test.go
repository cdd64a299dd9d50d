package reminder

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reminders.db")

	backend, err := OpenSQLite(path)
	require.NoError(t, err)

	s := NewStore(backend, WithIDGenerator(sequentialIDs()))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 0, s.Len())

	// Insert in an order that differs from ID and date order.
	late := sample("late")
	late.Date.Day = 20
	late.DidNotify = true
	_, err = s.Add(late)
	require.NoError(t, err)
	early := sample("early")
	early.Date.Day = 2
	early.ShouldNotify = true
	_, err = s.Add(early)
	require.NoError(t, err)
	removed, err := s.Add(sample("removed"))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx))

	require.NoError(t, s.Remove(removed.ID))
	require.NoError(t, s.Save(ctx))
	want := s.List()
	for i := range want {
		want[i].ShouldNotify = false
	}
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	s2 := NewStore(reopened)
	require.NoError(t, s2.Load(ctx))
	assert.Equal(t, want, s2.List())
	assert.Equal(t, "late", s2.List()[0].Title)
}

func TestSQLiteCorruptRow(t *testing.T) {
	ctx := context.Background()
	backend, err := OpenSQLite(filepath.Join(t.TempDir(), "reminders.db"))
	require.NoError(t, err)
	defer backend.Close()

	_, err = backend.db.Exec(`
		INSERT INTO reminders (position, id, title, description, date, time)
		VALUES (0, 'x', 't', 'd', 'not a date', '14:00:00')
	`)
	require.NoError(t, err)

	_, err = backend.Load(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}
