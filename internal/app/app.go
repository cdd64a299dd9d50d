// Package app assembles the store, notifiers and scheduler from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/notexe/remind/internal/config"
	"github.com/notexe/remind/internal/notify"
	"github.com/notexe/remind/internal/reminder"
	"github.com/notexe/remind/internal/scheduler"
	"github.com/notexe/remind/internal/ui"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DefaultSQLitePath is used when the sqlite driver is selected but the
// path still points at the JSON default.
const DefaultSQLitePath = "reminders.db"

// App holds the long-lived components of one process.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Store     *reminder.Store
	Scheduler *scheduler.Scheduler
	Formatter *ui.Formatter

	closers []io.Closer
}

// Options tweak how the App is assembled. Zero values use the host.
type Options struct {
	Fs       afero.Fs
	Out      io.Writer
	Notifier notify.Notifier
}

// New opens the configured backend, loads the store and builds the
// scheduler. A store that fails to load is returned halted together
// with the load error so callers can report it and keep running.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	a := &App{
		Config:    cfg,
		Logger:    logger,
		Formatter: ui.NewFormatter(cfg.UI.ColoredOutput),
	}

	backend, err := openBackend(cfg.Store, opts.Fs)
	if err != nil {
		return nil, err
	}
	a.Store = reminder.NewStore(backend, reminder.WithLogger(logger.Named("store")))
	a.closers = append(a.closers, a.Store)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = a.buildNotifier(opts.Out)
	}

	a.Scheduler = scheduler.New(a.Store, notifier,
		scheduler.WithLogger(logger.Named("scheduler")),
		scheduler.WithInterval(cfg.Interval()),
		scheduler.WithIcon(cfg.Notify.Icon),
		scheduler.WithTimeout(cfg.NotifyTimeout()),
	)

	if err := a.Store.Load(ctx); err != nil {
		return a, fmt.Errorf("failed to load reminders: %w", err)
	}
	return a, nil
}

func openBackend(cfg config.StoreConfig, fs afero.Fs) (reminder.Backend, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.Path
		if path == "" || path == reminder.DefaultFileName {
			path = DefaultSQLitePath
		}
		return reminder.OpenSQLite(path)
	case config.DriverJSON, "":
		return reminder.NewFileBackend(fs, cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

func (a *App) buildNotifier(out io.Writer) notify.Notifier {
	var sinks []notify.Notifier
	cfg := a.Config.Notify

	if cfg.Desktop.Enabled {
		desktop, err := notify.NewDesktop(cfg.Desktop.AppName)
		if err != nil {
			a.Logger.Warn("desktop notifications unavailable", zap.Error(err))
		} else {
			sinks = append(sinks, desktop)
			a.closers = append(a.closers, desktop)
		}
	}
	if cfg.Telegram.Enabled {
		sinks = append(sinks, notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Console.Enabled {
		sinks = append(sinks, notify.NewConsole(out, a.Formatter))
	}

	return notify.NewMulti(a.Logger.Named("notify"), sinks...)
}

// Close releases the backend and notifier connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
