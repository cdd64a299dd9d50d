// Package notify delivers reminder notifications to the user.
package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Notification is a single user-visible message.
type Notification struct {
	Summary string
	Body    string
	Icon    string
	Timeout time.Duration
}

// Notifier is a notification sink.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}

// ErrNoSinks is returned by a Multi with no sinks configured.
var ErrNoSinks = errors.New("no notification sinks configured")

// Multi fans a notification out to several sinks. It succeeds when at
// least one sink succeeds; failures of the others are logged.
type Multi struct {
	sinks  []Notifier
	logger *zap.Logger
}

func NewMulti(logger *zap.Logger, sinks ...Notifier) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: sinks, logger: logger}
}

func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Notify(ctx context.Context, n Notification) error {
	if len(m.sinks) == 0 {
		return ErrNoSinks
	}

	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
			continue
		}
	}

	if len(errs) == len(m.sinks) {
		return errors.Join(errs...)
	}
	for _, err := range errs {
		m.logger.Warn("notification sink failed", zap.String("summary", n.Summary), zap.Error(err))
	}
	return nil
}
