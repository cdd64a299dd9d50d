package reminder

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the ordered, in-memory set of reminders. Persistence is
// explicit: nothing reaches the backend until Save is called.
type Store struct {
	mu        sync.Mutex
	backend   Backend
	reminders []Reminder
	dirty     bool
	halted    error
	logger    *zap.Logger
	newID     func() string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for load and save diagnostics.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithIDGenerator overrides how IDs are assigned to new reminders.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		s.newID = fn
	}
}

// NewStore creates an empty store backed by b. Call Load to read the
// persisted reminders.
func NewStore(b Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: b,
		logger:  zap.NewNop(),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory reminders with the persisted ones. Due
// flags are cleared: a reminder whose minute passed while nothing was
// running is not delivered late.
//
// If the backend fails, the store is left empty and halted: Save refuses
// to write until a later Load succeeds, so a bad file is never overwritten.
func (s *Store) Load(ctx context.Context) error {
	loaded, err := s.backend.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.reminders = nil
		s.dirty = false
		s.halted = err
		s.logger.Error("failed to load reminders, store halted", zap.Error(err))
		return err
	}

	s.halted = nil
	s.dirty = false
	s.reminders = make([]Reminder, 0, len(loaded))

	seen := make(map[string]bool, len(loaded))
	for _, r := range loaded {
		if r.ID == "" || seen[r.ID] {
			r.ID = s.newID()
			s.dirty = true
		}
		seen[r.ID] = true
		// the due flag belongs to the process that set it
		r.ShouldNotify = false
		s.reminders = append(s.reminders, r)
	}

	s.logger.Debug("reminders loaded", zap.Int("count", len(s.reminders)), zap.Bool("dirty", s.dirty))
	return nil
}

// Save replaces the persisted state with the current in-memory sequence.
// On failure the in-memory state stays dirty so the save can be retried.
func (s *Store) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted != nil {
		return fmt.Errorf("%w: %v", ErrHalted, s.halted)
	}

	if err := s.backend.Save(ctx, s.snapshotLocked()); err != nil {
		s.logger.Error("failed to save reminders", zap.Error(err))
		return err
	}
	s.dirty = false
	return nil
}

// Add validates r and appends a copy of it. An empty ID is replaced with
// a generated one. The stored reminder is returned.
func (s *Store) Add(r Reminder) (Reminder, error) {
	if err := r.Validate(); err != nil {
		return Reminder{}, err
	}
	if r.DidNotify {
		r.ShouldNotify = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = s.newID()
	} else if s.indexLocked(r.ID) >= 0 {
		return Reminder{}, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
	}

	s.reminders = append(s.reminders, r)
	s.dirty = true
	return r, nil
}

// Remove deletes the reminder with the given ID.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	s.reminders = append(s.reminders[:i], s.reminders[i+1:]...)
	s.dirty = true
	return nil
}

// Update applies partial updates to a reminder. Changing the date, time
// or lead clears a pending due flag; DidNotify is never touched.
func (s *Store) Update(id string, fields UpdateFields) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Reminder{}, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}

	updated := s.reminders[i]
	fields.apply(&updated)
	if err := updated.Validate(); err != nil {
		return Reminder{}, err
	}
	if fields.reschedules() {
		updated.ShouldNotify = false
	}

	s.reminders[i] = updated
	s.dirty = true
	return updated, nil
}

// MarkDelivered flips a reminder into its terminal delivered state.
func (s *Store) MarkDelivered(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	s.reminders[i].DidNotify = true
	s.reminders[i].ShouldNotify = false
	s.dirty = true
	return nil
}

// Get returns a copy of the reminder with the given ID.
func (s *Store) Get(id string) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Reminder{}, fmt.Errorf("reminder %s: %w", id, ErrNotFound)
	}
	return s.reminders[i], nil
}

// Find resolves a full ID or a unique ID prefix.
func (s *Store) Find(prefix string) (Reminder, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return Reminder{}, fmt.Errorf("empty id: %w", ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexLocked(prefix); i >= 0 {
		return s.reminders[i], nil
	}

	var match *Reminder
	for i := range s.reminders {
		if !strings.HasPrefix(s.reminders[i].ID, prefix) {
			continue
		}
		if match != nil {
			return Reminder{}, fmt.Errorf("%w: %s", ErrAmbiguous, prefix)
		}
		match = &s.reminders[i]
	}
	if match == nil {
		return Reminder{}, fmt.Errorf("reminder %s: %w", prefix, ErrNotFound)
	}
	return *match, nil
}

// List returns a snapshot of all reminders in insertion order. The
// snapshot goes stale as soon as the scheduler runs again.
func (s *Store) List() []Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reminders)
}

// Dirty reports whether there are changes not yet saved.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Halted returns the load error that halted the store, or nil.
func (s *Store) Halted() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Mutate gives fn exclusive access to the stored reminders. fn must not
// retain the pointers. If fn returns true the store is marked dirty.
func (s *Store) Mutate(fn func(reminders []*Reminder) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ptrs := make([]*Reminder, len(s.reminders))
	for i := range s.reminders {
		ptrs[i] = &s.reminders[i]
	}
	if fn(ptrs) {
		s.dirty = true
	}
}

// Close closes the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) indexLocked(id string) int {
	for i := range s.reminders {
		if s.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) snapshotLocked() []Reminder {
	out := make([]Reminder, len(s.reminders))
	copy(out, s.reminders)
	return out
}
