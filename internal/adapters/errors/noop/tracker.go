package noop

import (
	"context"

	"ossy/pkg/errors"
)

// Tracker discards every event. Used when SENTRY_DSN is empty and in tests.
type Tracker struct{}

var _ errors.Tracker = (*Tracker)(nil)

// New creates a new no-op tracker
func New() *Tracker {
	return &Tracker{}
}

func (t *Tracker) CaptureError(context.Context, error, map[string]string) error { return nil }

func (t *Tracker) CaptureMessage(context.Context, string, errors.Level, map[string]string) error {
	return nil
}

func (t *Tracker) AddBreadcrumb(context.Context, string, string, errors.Level, map[string]interface{}) {
}

func (t *Tracker) Flush(context.Context) error { return nil }
