package events

import (
	"context"
	"errors"
)

// Recorder persists or publishes request events.
type Recorder interface {
	Record(ctx context.Context, e *Event) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, *Event) error { return nil }

// Multi fans an event out to every recorder and joins their errors.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, e *Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
