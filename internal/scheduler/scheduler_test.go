package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/notexe/remind/internal/notify"
	"github.com/notexe/remind/internal/reminder"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storePath = "output.json"

type recorder struct {
	mu   sync.Mutex
	got  []notify.Notification
	err  error
	sent chan struct{}
}

func (r *recorder) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.got = append(r.got, n)
	if r.sent != nil {
		r.sent <- struct{}{}
	}
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}

func (r *recorder) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

type failingBackend struct{}

func (failingBackend) Load(context.Context) ([]reminder.Reminder, error) { return nil, nil }
func (failingBackend) Save(context.Context, []reminder.Reminder) error {
	return errors.New("disk full")
}
func (failingBackend) Close() error { return nil }

func newStore(t *testing.T, fs afero.Fs) *reminder.Store {
	t.Helper()
	s := reminder.NewStore(reminder.NewFileBackend(fs, storePath))
	require.NoError(t, s.Load(context.Background()))
	return s
}

// dentist is due at 2025-03-01 14:00 with a one hour lead.
func dentist() reminder.Reminder {
	return reminder.Reminder{
		Title:       "Dentist",
		Description: "Bring insurance card",
		Date:        reminder.Date{Year: 2025, Month: time.March, Day: 1},
		Time:        reminder.Clock{Hour: 14},
		LeadHours:   1,
	}
}

func at(day, hour, min, sec int) time.Time {
	return time.Date(2025, time.March, day, hour, min, sec, 0, time.UTC)
}

func TestCheckDeliverLifecycle(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := newStore(t, fs)
	rec := &recorder{}
	s := New(store, rec)

	added, err := store.Add(dentist())
	require.NoError(t, err)

	due := s.CheckDue(at(1, 13, 0, 0))
	require.Len(t, due, 1)
	assert.Equal(t, added.ID, due[0].ID)
	got, err := store.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StateDue, got.State())

	require.NoError(t, s.Deliver(ctx, added.ID))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, notify.Notification{
		Summary: "Dentist",
		Body:    "Bring insurance card\nDate: 2025-03-01\nTime: 14:00:00",
		Icon:    DefaultIcon,
		Timeout: 6 * time.Second,
	}, rec.got[0])

	got, err = store.Get(added.ID)
	require.NoError(t, err)
	assert.True(t, got.DidNotify)
	assert.False(t, got.ShouldNotify)
	assert.False(t, store.Dirty())

	// The delivered state was persisted.
	reloaded := newStore(t, fs)
	persisted, err := reloaded.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StateDelivered, persisted.State())

	// A second check in the same minute does not re-trigger.
	assert.Empty(t, s.CheckDue(at(1, 13, 0, 30)))
	got, err = store.Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StateDelivered, got.State())
}

func TestCheckDueMinuteWindow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		due  bool
	}{
		{"start of minute", at(1, 13, 0, 0), true},
		{"end of minute", at(1, 13, 0, 59), true},
		{"minute before", at(1, 12, 59, 59), false},
		{"minute after", at(1, 13, 1, 0), false},
		{"same time next day", at(2, 13, 0, 0), false},
		{"target time itself", at(1, 14, 0, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore(t, afero.NewMemMapFs())
			_, err := store.Add(dentist())
			require.NoError(t, err)

			due := New(store, &recorder{}).CheckDue(tt.now)
			assert.Equal(t, tt.due, len(due) == 1)
			assert.Equal(t, tt.due, store.List()[0].ShouldNotify)
		})
	}
}

func TestCheckDueKeepsUndeliveredReminderDue(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	_, err := store.Add(dentist())
	require.NoError(t, err)
	s := New(store, &recorder{})

	assert.Empty(t, s.CheckDue(at(1, 12, 59, 0)))
	require.Len(t, s.CheckDue(at(1, 13, 0, 0)), 1)
	assert.Len(t, s.CheckDue(at(1, 13, 1, 0)), 1)
	assert.Len(t, s.CheckDue(at(2, 9, 0, 0)), 1)
	assert.True(t, store.List()[0].ShouldNotify)
}

func TestCheckDueMissedMinuteIsNotDue(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	_, err := store.Add(dentist())
	require.NoError(t, err)
	s := New(store, &recorder{})

	assert.Empty(t, s.CheckDue(at(1, 13, 1, 0)))
	assert.False(t, store.List()[0].ShouldNotify)
}

func TestCheckDueLeadCrossesMidnight(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	r := dentist()
	r.Date.Day = 2
	r.Time = reminder.Clock{Hour: 1, Minute: 15}
	r.LeadHours = 2
	_, err := store.Add(r)
	require.NoError(t, err)

	s := New(store, &recorder{})
	assert.Len(t, s.CheckDue(at(1, 23, 15, 0)), 1)
	assert.Empty(t, s.CheckDue(at(2, 23, 15, 0)))
}

func TestCheckDueUsesLocationOfNow(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	_, err := store.Add(dentist())
	require.NoError(t, err)
	s := New(store, &recorder{})

	zone := time.FixedZone("UTC+5", 5*60*60)
	assert.Len(t, s.CheckDue(time.Date(2025, time.March, 1, 13, 0, 0, 0, zone)), 1)
}

func TestDeliveredNeverDueAgain(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	r := dentist()
	r.DidNotify = true
	_, err := store.Add(r)
	require.NoError(t, err)
	s := New(store, &recorder{})

	for now := at(1, 0, 0, 0); now.Before(at(2, 0, 0, 0)); now = now.Add(time.Minute) {
		require.Empty(t, s.CheckDue(now), "due at %s", now)
		require.False(t, store.List()[0].ShouldNotify)
	}
}

func TestDeliverSinkFailureRetries(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, afero.NewMemMapFs())
	added, err := store.Add(dentist())
	require.NoError(t, err)

	rec := &recorder{err: errors.New("bus unavailable")}
	s := New(store, rec)

	res := s.Tick(ctx, at(1, 13, 0, 0))
	assert.Equal(t, TickResult{Due: 1, Failed: 1}, res)
	got, err := store.Get(added.ID)
	require.NoError(t, err)
	assert.False(t, got.DidNotify)

	err = s.Deliver(ctx, added.ID)
	assert.ErrorIs(t, err, ErrSinkFailed)

	rec.setErr(nil)
	res = s.Tick(ctx, at(1, 13, 0, 30))
	assert.Equal(t, TickResult{Due: 1, Delivered: 1}, res)
	assert.Equal(t, 1, rec.count())

	res = s.Tick(ctx, at(1, 13, 0, 45))
	assert.Equal(t, TickResult{}, res)
	assert.Equal(t, 1, rec.count())
}

func TestDeliverSinkFailureRetriedAfterMinutePasses(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := newStore(t, fs)
	added, err := store.Add(dentist())
	require.NoError(t, err)

	rec := &recorder{err: errors.New("bus unavailable")}
	s := New(store, rec)

	res := s.Tick(ctx, at(1, 13, 0, 59))
	assert.Equal(t, TickResult{Due: 1, Failed: 1}, res)

	rec.setErr(nil)
	res = s.Tick(ctx, at(1, 13, 1, 0))
	assert.Equal(t, TickResult{Due: 1, Delivered: 1}, res)
	require.Equal(t, 1, rec.count())

	persisted, err := newStore(t, fs).Get(added.ID)
	require.NoError(t, err)
	assert.Equal(t, reminder.StateDelivered, persisted.State())

	assert.Equal(t, TickResult{}, s.Tick(ctx, at(1, 13, 2, 0)))
	assert.Equal(t, 1, rec.count())
}

// slowNotifier holds every notification long enough for a concurrent
// Deliver to overlap it.
type slowNotifier struct {
	delay time.Duration
	sent  atomic.Int32
}

func (n *slowNotifier) Notify(ctx context.Context, _ notify.Notification) error {
	select {
	case <-time.After(n.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	n.sent.Add(1)
	return nil
}

func TestDeliverConcurrentCallsNotifyOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, afero.NewMemMapFs())
	added, err := store.Add(dentist())
	require.NoError(t, err)

	n := &slowNotifier{delay: 50 * time.Millisecond}
	s := New(store, n)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Deliver(ctx, added.ID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), n.sent.Load())
	got, err := store.Get(added.ID)
	require.NoError(t, err)
	assert.True(t, got.DidNotify)
}

func TestDeliverNotFound(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	rec := &recorder{}

	err := New(store, rec).Deliver(context.Background(), "missing")
	assert.ErrorIs(t, err, reminder.ErrNotFound)
	assert.Equal(t, 0, rec.count())
}

func TestDeliverIsAtMostOnce(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, afero.NewMemMapFs())
	added, err := store.Add(dentist())
	require.NoError(t, err)
	rec := &recorder{}
	s := New(store, rec)

	require.NoError(t, s.Deliver(ctx, added.ID))
	require.NoError(t, s.Deliver(ctx, added.ID))
	assert.Equal(t, 1, rec.count())
}

func TestDeliverPersistFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	store := reminder.NewStore(failingBackend{})
	require.NoError(t, store.Load(ctx))
	added, err := store.Add(dentist())
	require.NoError(t, err)
	rec := &recorder{}
	s := New(store, rec)

	err = s.Deliver(ctx, added.ID)
	assert.ErrorIs(t, err, ErrNotPersisted)

	got, err := store.Get(added.ID)
	require.NoError(t, err)
	assert.True(t, got.DidNotify)
	assert.True(t, store.Dirty())

	res := s.Tick(ctx, at(1, 13, 0, 0))
	assert.Equal(t, TickResult{}, res)
	assert.Equal(t, 1, rec.count())
}

func TestTickDeliversEveryDueReminder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, afero.NewMemMapFs())
	for _, title := range []string{"a", "b"} {
		r := dentist()
		r.Title = title
		_, err := store.Add(r)
		require.NoError(t, err)
	}
	later := dentist()
	later.Time.Hour = 18
	_, err := store.Add(later)
	require.NoError(t, err)

	rec := &recorder{}
	res := New(store, rec).Tick(ctx, at(1, 13, 0, 0))
	assert.Equal(t, TickResult{Due: 2, Delivered: 2}, res)
	require.Equal(t, 2, rec.count())
	assert.Equal(t, "a", rec.got[0].Summary)
	assert.Equal(t, "b", rec.got[1].Summary)
}

func TestTickFlushesPendingChanges(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()
	store := newStore(t, fs)
	_, err := store.Add(dentist())
	require.NoError(t, err)
	require.True(t, store.Dirty())

	New(store, &recorder{}).Tick(ctx, at(5, 0, 0, 0))
	assert.False(t, store.Dirty())
	assert.Equal(t, 1, newStore(t, fs).Len())
}

func TestRun(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	_, err := store.Add(dentist())
	require.NoError(t, err)

	rec := &recorder{sent: make(chan struct{}, 4)}
	s := New(store, rec,
		WithInterval(5*time.Millisecond),
		WithClock(func() time.Time { return at(1, 13, 0, 0) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-rec.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("reminder was not delivered")
	}

	// Let a few more ticks pass; the reminder must not fire again.
	time.Sleep(30 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 1, rec.count())
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	store := newStore(t, afero.NewMemMapFs())
	s := New(store, &recorder{}, WithInterval(0))
	assert.Error(t, s.Run(context.Background()))
}
