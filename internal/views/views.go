// Package views holds the screen controllers. Each controller loads its
// data through the gateway, reports outcomes through a Notifier and
// returns the path to navigate to, if any.
package views

import (
	"context"
	"errors"

	"github.com/pauljones0/commodity-tracker/internal/gateway"
	"github.com/pauljones0/commodity-tracker/internal/session"
)

var (
	ErrBusy            = errors.New("operation already in progress")
	ErrForbidden       = errors.New("admin privilege required")
	ErrNoPendingDelete = errors.New("no delete pending")
)

// Navigation targets.
const (
	PathHome  = "/"
	PathLogin = "/login"
)

func dealPath(id string) string {
	return "/deals/" + id
}

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Success(message string)
	Error(message string)
	Info(message string)
}

// SessionSource yields the current session snapshot.
type SessionSource interface {
	Snapshot() session.Snapshot
}

// Optimistic is a local change applied before it is persisted, paired
// with the action that restores consistency if persisting fails.
type Optimistic struct {
	Apply      func()
	Commit     func(ctx context.Context) error
	Compensate func(ctx context.Context)
}

// Run applies the change, commits it and compensates on failure. The
// commit error is returned unchanged.
func (o Optimistic) Run(ctx context.Context) error {
	if o.Apply != nil {
		o.Apply()
	}
	if err := o.Commit(ctx); err != nil {
		if o.Compensate != nil {
			o.Compensate(ctx)
		}
		return err
	}
	return nil
}

// messageOr is the text to notify for err. A remote error without a
// message falls back to fallback.
func messageOr(err error, fallback string) string {
	var ge *gateway.Error
	if errors.As(err, &ge) {
		if ge.Message != "" {
			return ge.Message
		}
		return fallback
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
