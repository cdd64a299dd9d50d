package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/notexe/remind/internal/notify"
	"github.com/notexe/remind/internal/reminder"
	"go.uber.org/zap"
)

const (
	DefaultInterval = time.Second
	DefaultTimeout  = 6 * time.Second
	DefaultIcon     = "appointment-soon"
)

var (
	// ErrSinkFailed wraps a notifier failure. The reminder stays
	// undelivered and is retried on a later tick.
	ErrSinkFailed = errors.New("notification sink failed")
	// ErrNotPersisted is returned when a notification went out but the
	// delivered state could not be saved. The state is kept in memory.
	ErrNotPersisted = errors.New("delivery not persisted")
)

// Scheduler decides which reminders are due and delivers them.
type Scheduler struct {
	// deliverMu serializes Deliver so the delivered check and the
	// notification happen as one step.
	deliverMu sync.Mutex

	store    *reminder.Store
	notifier notify.Notifier
	logger   *zap.Logger
	now      func() time.Time
	interval time.Duration
	icon     string
	timeout  time.Duration
}

type Option func(*Scheduler)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithClock overrides the clock used by Run.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		s.interval = d
	}
}

func WithIcon(icon string) Option {
	return func(s *Scheduler) {
		s.icon = icon
	}
}

// WithTimeout sets how long a notification stays on screen.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = d
	}
}

// New creates a Scheduler over store that delivers through notifier.
func New(store *reminder.Store, notifier notify.Notifier, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:    store,
		notifier: notifier,
		logger:   zap.NewNop(),
		now:      time.Now,
		interval: DefaultInterval,
		icon:     DefaultIcon,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckDue marks reminders whose notify instant falls in the same
// calendar minute as now and returns every reminder that is due. A due
// reminder stays due until it is delivered, so a failed notification is
// retried after its minute has passed.
func (s *Scheduler) CheckDue(now time.Time) []reminder.Reminder {
	var due []reminder.Reminder
	s.store.Mutate(func(rs []*reminder.Reminder) bool {
		for _, r := range rs {
			r.ShouldNotify = !r.DidNotify && (r.ShouldNotify || isDue(*r, now))
			if r.ShouldNotify {
				due = append(due, *r)
			}
		}
		return false
	})
	return due
}

func isDue(r reminder.Reminder, now time.Time) bool {
	if r.DidNotify {
		return false
	}
	at := r.NotifyAt(now.Location())
	if reminder.DateOf(at) != reminder.DateOf(now) {
		return false
	}
	return at.Hour() == now.Hour() && at.Minute() == now.Minute()
}

// Deliver sends the notification for the reminder with the given ID,
// marks it delivered and saves the store. Delivered reminders are
// skipped, so a reminder is notified at most once even when Deliver is
// called concurrently.
func (s *Scheduler) Deliver(ctx context.Context, id string) error {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	r, err := s.store.Get(id)
	if err != nil {
		s.logger.Warn("reminder to deliver not found", zap.String("id", id))
		return err
	}
	if r.DidNotify {
		s.logger.Debug("reminder already delivered", zap.String("id", id))
		return nil
	}

	if err := s.notifier.Notify(ctx, s.Notification(r)); err != nil {
		s.logger.Error("notification failed, will retry",
			zap.String("id", id), zap.String("title", r.Title), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}

	if err := s.store.MarkDelivered(id); err != nil {
		s.logger.Warn("reminder removed during delivery", zap.String("id", id))
		return err
	}

	if err := s.store.Save(ctx); err != nil {
		s.logger.Error("failed to persist delivery", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}

	s.logger.Info("reminder delivered", zap.String("id", id), zap.String("title", r.Title))
	return nil
}

// Notification builds the user-visible notification for r.
func (s *Scheduler) Notification(r reminder.Reminder) notify.Notification {
	return notify.Notification{
		Summary: r.Title,
		Body:    fmt.Sprintf("%s\nDate: %s\nTime: %s", r.Description, r.Date, r.Time),
		Icon:    s.icon,
		Timeout: s.timeout,
	}
}

// TickResult summarizes one check-and-deliver cycle.
type TickResult struct {
	Due       int
	Delivered int
	Failed    int
}

// Tick runs CheckDue and delivers everything that is due. A failing
// reminder never stops the others. Unsaved changes left over from
// earlier failures are flushed at the end.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) TickResult {
	due := s.CheckDue(now)
	res := TickResult{Due: len(due)}

	for _, r := range due {
		err := s.Deliver(ctx, r.ID)
		switch {
		case err == nil, errors.Is(err, ErrNotPersisted):
			res.Delivered++
		default:
			res.Failed++
		}
	}

	if s.store.Dirty() {
		if err := s.store.Save(ctx); err != nil {
			s.logger.Warn("failed to flush pending changes", zap.Error(err))
		}
	}
	return res
}

// Run blocks and runs Tick on interval + immediately on start.
// It exits when ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler interval must be positive, got %s", s.interval)
	}

	s.logger.Info("started", zap.Duration("interval", s.interval))

	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	res := s.Tick(ctx, s.now())
	if res.Due == 0 {
		return
	}
	s.logger.Info("tick",
		zap.Int("due", res.Due),
		zap.Int("delivered", res.Delivered),
		zap.Int("failed", res.Failed))
}
