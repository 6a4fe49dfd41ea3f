package source

import (
	"context"
	"errors"
	"testing"

	"github.com/keymeter/typespeed/pkg/meter"
)

func TestReplayFeedsMeterThroughFilter(t *testing.T) {
	src := Replay{Events: []KeyEvent{
		{Type: 1, Code: 30, Value: 1},  // 'a' press
		{Type: 1, Code: 30, Value: 0},  // release, filtered
		{Type: 1, Code: 30, Value: 2},  // autorepeat, filtered
		{Type: 1, Code: 42, Value: 1},  // left shift, filtered
		{Type: 1, Code: 48, Value: 1},  // 'b' press
		{Type: 2, Code: 30, Value: 1},  // not a key event, filtered
		{Type: 1, Code: 200, Value: 1}, // outside tracked range, filtered
		{Type: 1, Code: 57, Value: 1},  // space press
	}}

	m := meter.New()
	err := src.Run(context.Background(), func(ev KeyEvent) {
		if meter.Countable(ev.Type, ev.Code, ev.Value) {
			m.Record()
		}
	})
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	m.Rotate()
	if s := m.Snapshot(); s.Total != 3 {
		t.Fatalf("counted %d events, want 3", s.Total)
	}
}

func TestReplayStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	delivered := 0
	err := Replay{Events: make([]KeyEvent, 10)}.Run(ctx, func(KeyEvent) { delivered++ })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if delivered != 0 {
		t.Fatalf("delivered %d events after cancellation", delivered)
	}
}

func TestSourceFuncAdapter(t *testing.T) {
	called := false
	src := SourceFunc(func(ctx context.Context, emit func(KeyEvent)) error {
		called = true
		emit(KeyEvent{Type: 1, Code: 30, Value: 1})
		return nil
	})

	got := 0
	if err := src.Run(context.Background(), func(KeyEvent) { got++ }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || got != 1 {
		t.Fatalf("adapter did not invoke function (called=%v, events=%d)", called, got)
	}
}
