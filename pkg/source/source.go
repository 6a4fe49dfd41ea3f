// Package source delivers raw keyboard events to the meter.
//
// The real implementation reads Linux evdev nodes; everything that consumes
// events depends only on the Source interface so the meter pipeline can be
// driven directly in tests without a keyboard.
package source

import "context"

// KeyEvent mirrors the kernel input event triple. The consumer decides what
// qualifies; a source delivers every transition it sees.
type KeyEvent struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Source pushes raw input events until ctx is cancelled. Run blocks for the
// lifetime of the subscription and returns nil on cancellation; a non-nil
// error means the subscription could not be established or was lost.
type Source interface {
	Run(ctx context.Context, emit func(KeyEvent)) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(KeyEvent)) error

// Run calls the underlying function.
func (f SourceFunc) Run(ctx context.Context, emit func(KeyEvent)) error {
	return f(ctx, emit)
}

// Replay emits a fixed sequence of events and returns. Used in tests.
type Replay struct {
	Events []KeyEvent
}

// Run emits each event in order, stopping early on cancellation.
func (r Replay) Run(ctx context.Context, emit func(KeyEvent)) error {
	for _, ev := range r.Events {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(ev)
	}
	return nil
}
