package reminder

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores reminders in a SQLite table, keeping insertion
// order in a position column.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at dbPath and
// ensures the reminders table exists.
func OpenSQLite(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createTable(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteBackend{db: db}, nil
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS reminders (
			position      INTEGER NOT NULL,
			id            TEXT    PRIMARY KEY,
			title         TEXT    NOT NULL,
			description   TEXT    NOT NULL,
			date          TEXT    NOT NULL,
			time          TEXT    NOT NULL,
			notify_when   INTEGER NOT NULL DEFAULT 0,
			should_notify INTEGER NOT NULL DEFAULT 0,
			did_notify    INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]Reminder, error) {
	rows, err := b.db.QueryContext(ctx, `
		SELECT id, title, description, date, time, notify_when, should_notify, did_notify
		FROM reminders ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		var date, clock string

		if err := rows.Scan(&r.ID, &r.Title, &r.Description, &date, &clock,
			&r.LeadHours, &r.ShouldNotify, &r.DidNotify); err != nil {
			return nil, fmt.Errorf("%w: failed to scan reminder: %v", ErrCorrupt, err)
		}
		if r.Date, err = ParseDate(date); err != nil {
			return nil, fmt.Errorf("%w: reminder %s: %v", ErrCorrupt, r.ID, err)
		}
		if r.Time, err = ParseClock(clock); err != nil {
			return nil, fmt.Errorf("%w: reminder %s: %v", ErrCorrupt, r.ID, err)
		}

		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// Save rewrites the table inside one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, reminders []Reminder) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reminders`); err != nil {
		return fmt.Errorf("failed to clear reminders: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reminders (position, id, title, description, date, time, notify_when, should_notify, did_notify)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range reminders {
		if _, err := stmt.ExecContext(ctx, i, r.ID, r.Title, r.Description,
			r.Date.String(), r.Time.String(), r.LeadHours, r.ShouldNotify, r.DidNotify); err != nil {
			return fmt.Errorf("failed to insert reminder %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reminders: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
