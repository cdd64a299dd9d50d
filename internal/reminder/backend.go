package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// DefaultFileName is the backing file used when no path is configured.
const DefaultFileName = "output.json"

// Backend persists the full reminder sequence.
type Backend interface {
	// Load returns the persisted reminders in order. A missing or empty
	// source yields no reminders and no error; unparseable data yields
	// an error wrapping ErrCorrupt.
	Load(ctx context.Context) ([]Reminder, error)
	// Save replaces the persisted reminders with the given sequence.
	Save(ctx context.Context, reminders []Reminder) error
	Close() error
}

// FileBackend stores reminders as a single JSON array in a flat file.
type FileBackend struct {
	fs   afero.Fs
	path string
}

// NewFileBackend returns a backend writing to path on fs.
func NewFileBackend(fs afero.Fs, path string) *FileBackend {
	if path == "" {
		path = DefaultFileName
	}
	return &FileBackend{fs: fs, path: path}
}

func (b *FileBackend) Load(_ context.Context) ([]Reminder, error) {
	data, err := afero.ReadFile(b.fs, b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", b.path, err)
	}

	// An existing empty file is treated as an empty store, not as bad JSON.
	if len(data) == 0 {
		return nil, nil
	}

	var reminders []Reminder
	if err := json.Unmarshal(data, &reminders); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, b.path, err)
	}
	return reminders, nil
}

// Save writes to a temporary file next to the target and renames it into
// place, so a failed write never leaves a truncated file behind.
func (b *FileBackend) Save(_ context.Context, reminders []Reminder) error {
	if reminders == nil {
		reminders = []Reminder{}
	}

	dir := filepath.Dir(b.path)
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(b.fs, dir, ".reminders-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reminders); err != nil {
		tmp.Close()
		b.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to write reminders: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		b.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to sync reminders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		b.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := b.fs.Chmod(tmp.Name(), 0o644); err != nil {
		b.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := b.fs.Rename(tmp.Name(), b.path); err != nil {
		b.fs.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", b.path, err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}
