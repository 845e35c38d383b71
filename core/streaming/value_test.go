package streaming

import (
	"context"
	"testing"
	"time"

	"github.com/fluxbench/commander/core/types"
)

func TestValueStreamBroadcastsSetsInOrder(t *testing.T) {
	s, err := NewValueStream(types.NumberType(), nil)
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	sub, cancel := s.Subscribe()
	defer cancel()

	for _, n := range []float64{1, 2, 3} {
		if err := s.Set(types.Num(n)); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	for _, want := range []float64{1, 2, 3} {
		d, err := sub.Next(ctx)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if d.Gap {
			t.Fatalf("unexpected gap")
		}
		if d.Event.Op != ValueSet || d.Event.Value.Number() != want {
			t.Fatalf("want Set(%v), got %+v", want, d.Event)
		}
	}

	if snap := s.Snapshot(); snap == nil || snap.Number() != 3 {
		t.Fatalf("snapshot want 3, got %v", snap)
	}
}

func TestValueStreamSetRejectsWrongType(t *testing.T) {
	s, err := NewValueStream(types.NumberType(), types.Num(1))
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	if err := s.Set(types.Str("nope")); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}

func TestValueStreamDestroyBroadcastsAndWakesSubscribers(t *testing.T) {
	s, err := NewValueStream(types.BooleanType(), types.Bool(false))
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	sub, cancel := s.Subscribe()
	defer cancel()

	s.Destroy()

	ctx, done := context.WithTimeout(context.Background(), time.Second)
	defer done()
	d, err := sub.Next(ctx)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if d.Event.Op != ValueDestroyed {
		t.Fatalf("want ValueDestroyed, got %+v", d.Event)
	}

	if snap := s.Snapshot(); snap != nil {
		t.Fatalf("expected nil snapshot after destroy, got %v", snap)
	}
	if err := s.Set(types.Bool(true)); err == nil {
		t.Fatalf("expected Set on destroyed stream to fail")
	}
}

func TestValueSubscriptionGapOnOverflow(t *testing.T) {
	s, err := NewValueStream(types.NumberType(), types.Num(0))
	if err != nil {
		t.Fatalf("NewValueStream: %v", err)
	}
	sub, cancel := s.Subscribe()
	defer cancel()

	for i := 0; i < DefaultChangeBuffer+5; i++ {
		if err := s.Set(types.Num(float64(i))); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	d, ok := sub.Poll()
	if !ok {
		t.Fatalf("expected a buffered delivery")
	}
	if !d.Gap {
		t.Fatalf("expected gap flag after overflowing the ring")
	}
}
