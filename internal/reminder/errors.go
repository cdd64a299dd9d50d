package reminder

import "errors"

var (
	// ErrIncomplete is returned when a reminder lacks a title or description.
	ErrIncomplete = errors.New("reminder is incomplete")
	// ErrInvalid is returned for reminders with out-of-range fields.
	ErrInvalid = errors.New("invalid reminder")
	// ErrNotFound is returned when no reminder carries the requested ID.
	ErrNotFound = errors.New("reminder not found")
	// ErrAmbiguous is returned when an ID prefix matches several reminders.
	ErrAmbiguous = errors.New("ambiguous reminder id")
	// ErrDuplicateID is returned when adding a reminder whose ID is taken.
	ErrDuplicateID = errors.New("duplicate reminder id")
	// ErrCorrupt is returned when persisted reminders cannot be parsed.
	ErrCorrupt = errors.New("reminder store is corrupt")
	// ErrHalted is returned by Save after a failed Load, until a Load succeeds.
	ErrHalted = errors.New("reminder store is halted")
)
